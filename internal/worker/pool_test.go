package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

type mockResult struct {
	err error
}

func (r *mockResult) GetError() error { return r.err }

type mockJob struct {
	executed *int32
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	return &mockResult{}
}

func TestNewPool_MinimumOneWorker(t *testing.T) {
	if p := NewPool(0); p.workers != 1 {
		t.Errorf("expected 1 worker for 0 input, got %d", p.workers)
	}
	if p := NewPool(-3); p.workers != 1 {
		t.Errorf("expected 1 worker for negative input, got %d", p.workers)
	}
	if p := NewPool(4); p.workers != 4 {
		t.Errorf("expected 4 workers, got %d", p.workers)
	}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	// Far past the channel buffers: every job must be accepted and run
	// even when all of them are submitted before Wait.
	var executed int32
	count := 64
	for i := 0; i < count; i++ {
		pool.Submit(&mockJob{executed: &executed})
	}

	results := pool.Wait()
	if len(results) != count {
		t.Errorf("expected %d results, got %d", count, len(results))
	}
	if atomic.LoadInt32(&executed) != int32(count) {
		t.Errorf("expected %d executed jobs, got %d", count, executed)
	}
}

type fakeReader struct {
	coords map[string][2]int
	calls  int32
}

func (f *fakeReader) ReadCoords(ctx context.Context, imageURL string) (int, int, bool) {
	atomic.AddInt32(&f.calls, 1)
	if xy, ok := f.coords[imageURL]; ok {
		return xy[0], xy[1], true
	}
	return 0, 0, false
}

func TestReadImages_OncePerURL(t *testing.T) {
	reader := &fakeReader{coords: map[string][2]int{
		"img-a": {1, 2},
		"img-b": {-3, 4},
	}}

	results := ReadImages(context.Background(), reader, []string{"img-a", "img-b", "img-c"}, 2)

	if atomic.LoadInt32(&reader.calls) != 3 {
		t.Errorf("expected 3 reads, got %d", reader.calls)
	}
	a := results["img-a"]
	if !a.Found || a.X != 1 || a.Y != 2 {
		t.Errorf("unexpected result for img-a: %+v", a)
	}
	c := results["img-c"]
	if c.Found {
		t.Errorf("expected img-c not found, got %+v", c)
	}
}

func TestReadImages_LargeBatchSingleWorker(t *testing.T) {
	reader := &fakeReader{coords: map[string][2]int{}}
	urls := make([]string, 12)
	for i := range urls {
		urls[i] = fmt.Sprintf("img-%d", i)
		reader.coords[urls[i]] = [2]int{i, -i}
	}

	done := make(chan map[string]ImageResult, 1)
	go func() {
		done <- ReadImages(context.Background(), reader, urls, 1)
	}()

	select {
	case results := <-done:
		if len(results) != len(urls) {
			t.Fatalf("expected %d results, got %d", len(urls), len(results))
		}
		for i, u := range urls {
			r := results[u]
			if !r.Found || r.X != i || r.Y != -i {
				t.Errorf("unexpected result for %s: %+v", u, r)
			}
		}
	case <-time.After(10 * time.Second):
		t.Fatal("ReadImages did not finish with more images than worker capacity")
	}
}

func TestReadImages_Empty(t *testing.T) {
	results := ReadImages(context.Background(), &fakeReader{}, nil, 1)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
