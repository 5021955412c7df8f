package inference

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeRunner echoes the input length and counts Close calls.
type fakeRunner struct {
	id     int
	closed atomic.Int32
	calls  atomic.Int32
}

func (f *fakeRunner) Infer(ctx context.Context, input []float32, _ []int64) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.calls.Add(1)
	return []float32{float32(len(input))}, nil
}

func (f *fakeRunner) Close() error {
	f.closed.Add(1)
	return nil
}

func fakePool(t *testing.T, size int) (*Pool, []*fakeRunner) {
	t.Helper()
	var runners []*fakeRunner
	pool, err := NewPoolFunc(size, func(i int) (Runner, error) {
		r := &fakeRunner{id: i}
		runners = append(runners, r)
		return r, nil
	})
	if err != nil {
		t.Fatalf("NewPoolFunc failed: %v", err)
	}
	return pool, runners
}

func TestNewPoolFunc_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -5} {
		pool, runners := fakePool(t, size)
		if pool.Size() != 1 || len(runners) != 1 {
			t.Errorf("size %d: got pool size %d with %d runners, want 1", size, pool.Size(), len(runners))
		}
		_ = pool.Close()
	}
}

func TestNewPoolFunc_OpenFailure(t *testing.T) {
	boom := errors.New("boom")
	var opened []*fakeRunner

	_, err := NewPoolFunc(3, func(i int) (Runner, error) {
		if i == 2 {
			return nil, boom
		}
		r := &fakeRunner{id: i}
		opened = append(opened, r)
		return r, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	for _, r := range opened {
		if r.closed.Load() != 1 {
			t.Errorf("runner %d not closed after failed open", r.id)
		}
	}
}

func TestNewPool_ModelNotFound(t *testing.T) {
	_, err := NewPool("../testdata/nonexistent.onnx", 2, DefaultIO)
	if err == nil {
		t.Fatal("expected error for non-existent model file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got: %v", err)
	}
}

func TestPool_AcquireRelease(t *testing.T) {
	pool, _ := fakePool(t, 2)
	defer func() { _ = pool.Close() }()

	ctx := context.Background()

	r1, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 1 failed: %v", err)
	}
	r2, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 2 failed: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded with every runner out, got %v", err)
	}

	pool.Release(r1)
	r3, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 3 failed: %v", err)
	}
	if r3 != r1 {
		t.Error("expected the released runner back")
	}

	pool.Release(r2)
	pool.Release(r3)
}

func TestPool_ReleaseNil(t *testing.T) {
	pool, _ := fakePool(t, 1)
	defer func() { _ = pool.Close() }()

	pool.Release(nil)
}

func TestPool_ReleaseForeignRunnerWhenFull(t *testing.T) {
	pool, _ := fakePool(t, 1)
	defer func() { _ = pool.Close() }()

	stray := &fakeRunner{id: 99}
	pool.Release(stray)
	if stray.closed.Load() != 1 {
		t.Error("expected a runner that does not fit to be closed")
	}
}

func TestPool_Close(t *testing.T) {
	pool, runners := fakePool(t, 3)

	if err := pool.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	for _, r := range runners {
		if got := r.closed.Load(); got != 1 {
			t.Errorf("runner %d closed %d times, want 1", r.id, got)
		}
	}

	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPool_ReleaseAfterClose(t *testing.T) {
	pool, _ := fakePool(t, 1)

	r, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	pool.Release(r)
	if r.(*fakeRunner).closed.Load() != 1 {
		t.Error("expected a runner released after Close to be closed")
	}
}

func TestPool_AcquireContextCancellation(t *testing.T) {
	pool, _ := fakePool(t, 1)
	defer func() { _ = pool.Close() }()

	r, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer pool.Release(r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPool_Infer(t *testing.T) {
	pool, runners := fakePool(t, 2)
	defer func() { _ = pool.Close() }()

	out, err := pool.Infer(context.Background(), make([]float32, 12), []int64{1, 3, 2, 2})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if len(out) != 1 || out[0] != 12 {
		t.Errorf("Infer() = %v, want [12]", out)
	}

	var calls int32
	for _, r := range runners {
		calls += r.calls.Load()
	}
	if calls != 1 {
		t.Errorf("expected one runner call, got %d", calls)
	}
}

func TestPool_ConcurrentInfer(t *testing.T) {
	pool, runners := fakePool(t, 3)
	defer func() { _ = pool.Close() }()

	const goroutines, iterations = 10, 20

	var wg sync.WaitGroup
	var failures atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				if _, err := pool.Infer(context.Background(), []float32{1}, []int64{1}); err != nil {
					failures.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Errorf("%d inferences failed", failures.Load())
	}
	var calls int32
	for _, r := range runners {
		calls += r.calls.Load()
	}
	if calls != goroutines*iterations {
		t.Errorf("expected %d calls, got %d", goroutines*iterations, calls)
	}
}

func TestPool_ONNX(t *testing.T) {
	if _, err := os.Stat(testModelPath); err != nil {
		t.Skipf("Skipping: model not available at %s", testModelPath)
	}
	pool, err := NewPool(testModelPath, 2, DefaultIO)
	if err != nil {
		if isORTUnavailableError(err) {
			t.Skipf("Skipping: ONNX runtime not available: %v", err)
		}
		t.Fatalf("NewPool failed: %v", err)
	}
	defer func() { _ = pool.Close() }()

	input, shape := testInput()
	out, err := pool.Infer(context.Background(), input, shape)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if len(out) == 0 {
		t.Error("expected non-empty output")
	}
}
