package inference

import "errors"

var (
	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("inference: pool closed")

	// ErrSessionClosed is returned by Infer after Close.
	ErrSessionClosed = errors.New("inference: session closed")

	// ErrShapeMismatch indicates the input length does not match the tensor shape.
	ErrShapeMismatch = errors.New("inference: input does not match shape")

	// ErrIONames indicates an empty input or output tensor name.
	ErrIONames = errors.New("inference: input and output names are required")
)
