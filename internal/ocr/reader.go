package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"os"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"

	"github.com/trmodding/claimatlas/internal/cache"
	"github.com/trmodding/claimatlas/internal/extract"
	"github.com/trmodding/claimatlas/internal/model"
	"github.com/trmodding/claimatlas/internal/util"
)

// Reader fetches a claim image, crops the region where coordinates are
// conventionally printed, upscales it, runs recognition and parses the
// result. Every failure on that path degrades to "not found"; nothing
// propagates as a fatal error past this boundary.
type Reader struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	crop      image.Rectangle
	upscale   int
	rec       Recognizer
	cache     cache.Cache // nil disables caching
	parse     func(string) (int, int, bool)
	verbose   bool
}

// cachedCoords is the positive-result cache payload.
type cachedCoords struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NewReader wires a Reader from configuration. rec is the recognition
// engine; c may be nil to disable caching.
func NewReader(cfg *model.Config, rec Recognizer, c cache.Cache) *Reader {
	crop := cfg.OCR.Crop
	upscale := cfg.OCR.Upscale
	if upscale < 1 {
		upscale = 1
	}
	return &Reader{
		client: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
			},
		},
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  cfg.HTTP.MaxBodyBytes,
		crop:      image.Rect(crop.X, crop.Y, crop.X+crop.Width, crop.Y+crop.Height),
		upscale:   upscale,
		rec:       rec,
		cache:     c,
		parse:     extract.OCRCoords,
		verbose:   cfg.Output.Verbose,
	}
}

// ReadCoords returns the coordinate pair printed on the image at
// imageURL. Positive results are cached by URL; failures are not, so the
// next run retries them.
func (r *Reader) ReadCoords(ctx context.Context, imageURL string) (int, int, bool) {
	key := cache.Key(imageURL)
	if r.cache != nil {
		if data, found := r.cache.Get(key); found {
			var cc cachedCoords
			if err := json.Unmarshal(data, &cc); err == nil {
				return cc.X, cc.Y, true
			}
		}
	}

	img, err := r.fetch(ctx, imageURL)
	if err != nil {
		r.debugf("could not fetch image %s: %v", imageURL, err)
		return 0, 0, false
	}

	text, err := r.recognize(img)
	if err != nil {
		r.debugf("recognition failed for %s: %v", imageURL, err)
		return 0, 0, false
	}

	x, y, ok := r.parse(text)
	if !ok {
		r.debugf("no coordinates in recognized text for %s", imageURL)
		return 0, 0, false
	}

	if r.cache != nil {
		if data, err := json.Marshal(cachedCoords{X: x, Y: y}); err == nil {
			if err := r.cache.Set(key, data, 0); err != nil {
				r.debugf("could not cache coordinates for %s: %v", imageURL, err)
			}
		}
	}
	return x, y, true
}

// fetch retrieves and decodes the image.
func (r *Reader) fetch(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// recognize crops the coordinate region, upscales it and runs the
// recognition engine. Nearest-neighbor is enough: the upscale exists
// only to give Tesseract more pixels to work with.
func (r *Reader) recognize(img image.Image) (string, error) {
	src := r.crop.Intersect(img.Bounds())
	if src.Empty() {
		return "", fmt.Errorf("crop region outside image bounds %v", img.Bounds())
	}

	dst := image.NewRGBA(image.Rect(0, 0, src.Dx()*r.upscale, src.Dy()*r.upscale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, src, xdraw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return "", fmt.Errorf("encode region: %w", err)
	}
	return r.rec.Text(buf.Bytes())
}

func (r *Reader) debugf(format string, args ...interface{}) {
	if r.verbose {
		fmt.Fprintf(os.Stderr, "ocr: "+format+"\n", args...)
	}
}
