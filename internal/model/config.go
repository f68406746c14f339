package model

import "time"

// Config is the complete claimatlas configuration. Values come from
// defaults, then ~/.claimatlas/config.yaml, then CLAIMATLAS_* environment
// variables, then CLI flags.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Crawl   CrawlConfig   `yaml:"crawl" mapstructure:"crawl"`
	OCR     OCRConfig     `yaml:"ocr" mapstructure:"ocr"`
	Hints   HintsConfig   `yaml:"hints" mapstructure:"hints"`
	Resolve ResolveConfig `yaml:"resolve" mapstructure:"resolve"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
}

// HTTPConfig covers every outbound fetch (claim pages and images).
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CrawlConfig controls the claims-table crawler.
type CrawlConfig struct {
	StartURL          string  `yaml:"start_url" mapstructure:"start_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	RespectRobots     bool    `yaml:"respect_robots" mapstructure:"respect_robots"`
	MaxPages          int     `yaml:"max_pages" mapstructure:"max_pages"` // 0 = unlimited
}

// CropRect is the image region holding the conventionally printed cell
// coordinates, in pixels from the top-left corner.
type CropRect struct {
	X      int `yaml:"x" mapstructure:"x"`
	Y      int `yaml:"y" mapstructure:"y"`
	Width  int `yaml:"width" mapstructure:"width"`
	Height int `yaml:"height" mapstructure:"height"`
}

// OCRConfig tunes the image coordinate reader. Crop and Upscale are
// heuristics, not contracts; adjust them if the wiki's screenshot
// conventions drift.
type OCRConfig struct {
	Crop      CropRect `yaml:"crop" mapstructure:"crop"`
	Upscale   int      `yaml:"upscale" mapstructure:"upscale"`
	Workers   int      `yaml:"workers" mapstructure:"workers"`
	Whitelist string   `yaml:"whitelist" mapstructure:"whitelist"`
	Language  string   `yaml:"language" mapstructure:"language"`
}

// HintsConfig points at the two persisted hint databases.
type HintsConfig struct {
	URLPath   string `yaml:"url_path" mapstructure:"url_path"`
	TitlePath string `yaml:"title_path" mapstructure:"title_path"`
}

// ResolveConfig selects and tunes the resolution steps.
type ResolveConfig struct {
	// Methods is a set of single-character flags: 'i' image OCR,
	// 'u' URL hints, 't' title hints, 'e' transposition fix.
	// Execution order is fixed regardless of flag order.
	Methods string `yaml:"methods" mapstructure:"methods"`
	// TransposeMarker is the bracketed title token identifying claims
	// from the content-development period with the off-by-100 grid bug.
	TransposeMarker string `yaml:"transpose_marker" mapstructure:"transpose_marker"`
	TransposeLimit  int    `yaml:"transpose_limit" mapstructure:"transpose_limit"`
	TransposeOffset int    `yaml:"transpose_offset" mapstructure:"transpose_offset"`
}

// CacheConfig controls the OCR-result cache. TTL 0 means entries never
// expire; cell coordinates printed on an image do not change.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// OutputConfig describes the renderer hand-off files and the map
// viewport. Corners/Width/Colormap are product configuration passed
// through to the external chart renderer, not consumed here.
type OutputConfig struct {
	Verbose       bool    `yaml:"verbose" mapstructure:"verbose"`
	CellsPath     string  `yaml:"cells_path" mapstructure:"cells_path"`
	UnlocatedPath string  `yaml:"unlocated_path" mapstructure:"unlocated_path"`
	ViewportPath  string  `yaml:"viewport_path" mapstructure:"viewport_path"`
	Corners       string  `yaml:"corners" mapstructure:"corners"` // four integers: x0 x1 y0 y1
	CornerOffset  float64 `yaml:"corner_offset" mapstructure:"corner_offset"`
	Width         float64 `yaml:"width" mapstructure:"width"`
	Colormap      string  `yaml:"colormap" mapstructure:"colormap"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "claimatlas/0.3 (+https://github.com/trmodding/claimatlas)",
			MaxBodyBytes: 8_000_000,
		},
		Crawl: CrawlConfig{
			StartURL:          "https://www.tamriel-rebuilt.org/claims/interiors",
			RequestsPerSecond: 2,
			Burst:             2,
			RespectRobots:     true,
		},
		OCR: OCRConfig{
			Crop:      CropRect{X: 0, Y: 0, Width: 300, Height: 35},
			Upscale:   2,
			Workers:   1,
			Whitelist: "0123456789-,. ",
			Language:  "eng",
		},
		Hints: HintsConfig{
			URLPath:   "data/url_hints.json",
			TitlePath: "data/title_hints.json",
		},
		Resolve: ResolveConfig{
			Methods:         "itue",
			TransposeMarker: "[ITO]",
			TransposeLimit:  100,
			TransposeOffset: 100,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".claimatlas-cache",
			TTL:     0,
		},
		Output: OutputConfig{
			CellsPath:     "aggregated_claims.json",
			UnlocatedPath: "unlocated_claims.json",
			ViewportPath:  "map_viewport.json",
			Corners:       "-42 61 -64 38",
			CornerOffset:  -0.5,
			Width:         900,
			Colormap:      "Plasma",
		},
	}
}
