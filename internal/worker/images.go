package worker

import "context"

// CoordReader reads a coordinate pair off an image. Failures degrade to
// found=false; they never surface as errors.
type CoordReader interface {
	ReadCoords(ctx context.Context, imageURL string) (x, y int, found bool)
}

// ImageResult is the outcome for one unique image URL.
type ImageResult struct {
	URL   string
	X, Y  int
	Found bool
}

// GetError always returns nil: a coordinate that could not be read is a
// normal outcome, not a job failure.
func (r *ImageResult) GetError() error { return nil }

// imageJob carries the caller's context so HTTP timeouts and
// cancellation reach the fetch even though the pool has its own.
type imageJob struct {
	ctx    context.Context
	url    string
	reader CoordReader
}

func (j *imageJob) Execute(_ context.Context) Result {
	x, y, found := j.reader.ReadCoords(j.ctx, j.url)
	return &ImageResult{URL: j.url, X: x, Y: y, Found: found}
}

// ReadImages recognizes every URL once, using up to workers concurrent
// fetches, and returns the results keyed by URL. Completion order is
// irrelevant to callers, who apply results in their own fixed order.
func ReadImages(ctx context.Context, reader CoordReader, urls []string, workers int) map[string]ImageResult {
	results := make(map[string]ImageResult, len(urls))
	if len(urls) == 0 {
		return results
	}

	pool := NewPool(workers)
	pool.Start()
	for _, u := range urls {
		pool.Submit(&imageJob{ctx: ctx, url: u, reader: reader})
	}
	for _, r := range pool.Wait() {
		ir := r.(*ImageResult)
		results[ir.URL] = *ir
	}
	return results
}
