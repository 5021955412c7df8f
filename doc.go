// Package liveness scores face images for presentation attacks.
//
// Two scorers are provided: Estimator runs an ONNX liveness classifier, and
// Heuristic combines texture, edge, contrast and brightness statistics of the
// brightest face-sized window. Both return a score in [0,1] where higher means
// more likely bona fide.
//
// # Quick Start
//
//	est, err := liveness.New("liveness.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer est.Close()
//
//	res, err := est.EstimateFile(ctx, "face.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Live: %v (score: %.2f)\n", res.Live, res.Score)
//
// # Thread Safety
//
// Estimator is safe for concurrent use. It manages an internal pool of ONNX
// sessions, configurable via WithPoolSize. Heuristic is stateless.
package liveness
