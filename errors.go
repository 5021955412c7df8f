package liveness

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrModelNotFound indicates the model file does not exist.
	ErrModelNotFound = errors.New("liveness: model file not found")

	// ErrInvalidModel indicates the model file exists but could not be loaded.
	ErrInvalidModel = errors.New("liveness: invalid model format")

	// ErrDecode indicates the image file could not be read or decoded.
	ErrDecode = errors.New("liveness: cannot decode image")

	// ErrNoFace indicates no face region could be located in the image.
	ErrNoFace = errors.New("liveness: no face detected")

	// ErrUnexpectedOutput indicates the model output has an unusable shape.
	ErrUnexpectedOutput = errors.New("liveness: unexpected model output")
)
