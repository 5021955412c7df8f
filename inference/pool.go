package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Runner is one inference backend. *Session implements it.
type Runner interface {
	Infer(ctx context.Context, input []float32, shape []int64) ([]float32, error)
	Close() error
}

// OpenFunc creates the i-th runner of a pool.
type OpenFunc func(i int) (Runner, error)

// Pool hands out a fixed set of runners so images can be scored concurrently
// while each ONNX session is used by one goroutine at a time.
type Pool struct {
	idle chan Runner
	size int

	mu     sync.Mutex
	closed bool
}

// NewPool opens size ONNX sessions on the same model. A size below one means one.
func NewPool(modelPath string, size int, io IO) (*Pool, error) {
	return NewPoolFunc(size, func(int) (Runner, error) {
		return NewSession(modelPath, io)
	})
}

// NewPoolFunc fills a pool with runners from open. If any open fails, the
// runners opened so far are closed and the open error is returned.
func NewPoolFunc(size int, open OpenFunc) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	p := &Pool{idle: make(chan Runner, size), size: size}
	for i := range size {
		r, err := open(i)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("opening runner %d: %w", i, err)
		}
		p.idle <- r
	}
	return p, nil
}

// Acquire takes an idle runner, waiting until one is released or ctx ends.
func (p *Pool) Acquire(ctx context.Context) (Runner, error) {
	select {
	case r, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release gives r back. After Close the runner is closed instead.
func (p *Pool) Release(r Runner) {
	if r == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = r.Close()
		return
	}

	select {
	case p.idle <- r:
	default:
		// not one of ours
		_ = r.Close()
	}
}

// Infer runs one input on whichever runner is free.
func (p *Pool) Infer(ctx context.Context, input []float32, shape []int64) ([]float32, error) {
	r, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(r)

	return r.Infer(ctx, input, shape)
}

// Close closes every idle runner. Runners still checked out are closed when
// they are released. Close is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.idle)
	p.mu.Unlock()

	var errs []error
	for r := range p.idle {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size is the number of runners the pool was built with.
func (p *Pool) Size() int {
	return p.size
}
