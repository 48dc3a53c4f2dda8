package common

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all intake thresholds and behavior flags. It is constructed
// once by the caller and threaded through every component constructor; core
// packages never read files or environment variables themselves.
type Config struct {
	Fingerprint FingerprintConfig `yaml:"fingerprint"`
	Classify    ClassifyConfig    `yaml:"classify"`
	Dedupe      DedupeConfig      `yaml:"dedupe"`
	Stitch      StitchConfig      `yaml:"stitch"`
	Canonical   CanonicalConfig   `yaml:"canonical"`
	Parser      ParserConfig      `yaml:"parser"`
	Intake      IntakeConfig      `yaml:"intake"`
}

// ClassifyConfig holds the model-vs-heuristic decision policy.
type ClassifyConfig struct {
	ModelMinHigh   float64 `yaml:"model_min_high"`   // model wins outright above this confidence
	ModelMinTie    float64 `yaml:"model_min_tie"`    // model considered against heuristic above this
	ModelTieMargin float64 `yaml:"model_tie_margin"` // required lead over the heuristic in the tie band
}

// FingerprintConfig holds page-similarity thresholds.
type FingerprintConfig struct {
	SimilarPhashMax   int     `yaml:"similar_phash_max"`   // max Hamming distance for phash similarity
	SimilarSimhashMin float64 `yaml:"similar_simhash_min"` // min header/footer simhash similarity
	HeaderRatio       float64 `yaml:"header_ratio"`        // share of leading lines treated as header
	FooterRatio       float64 `yaml:"footer_ratio"`        // share of trailing lines treated as footer
}

// DedupeConfig holds duplicate-detection thresholds.
type DedupeConfig struct {
	PhashHammingMax     int     `yaml:"phash_hamming_max"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// StitchConfig holds cross-file stitching thresholds.
type StitchConfig struct {
	ScoreMin         float64 `yaml:"score_min"`
	HeaderSimhashMin float64 `yaml:"header_simhash_min"`
	FooterSimhashMin float64 `yaml:"footer_simhash_min"`
	MaxGroupSize     int     `yaml:"max_group_size"`
}

// CanonicalConfig holds canonical-builder thresholds.
type CanonicalConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
}

// ParserConfig holds the structured-parsing service client settings.
type ParserConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// IntakeConfig holds router-level behavior flags.
type IntakeConfig struct {
	MaxParallel   int `yaml:"max_parallel"`    // 0 = GOMAXPROCS
	FullScanBelow int `yaml:"full_scan_below"` // batch size under which candidate bucketing is skipped
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() *Config {
	return &Config{
		Fingerprint: FingerprintConfig{
			SimilarPhashMax:   8,
			SimilarSimhashMin: 0.86,
			HeaderRatio:       0.1,
			FooterRatio:       0.1,
		},
		Classify: ClassifyConfig{
			ModelMinHigh:   0.75,
			ModelMinTie:    0.5,
			ModelTieMargin: 0.1,
		},
		Dedupe: DedupeConfig{
			PhashHammingMax:     8,
			ConfidenceThreshold: 0.85,
		},
		Stitch: StitchConfig{
			ScoreMin:         0.72,
			HeaderSimhashMin: 0.86,
			FooterSimhashMin: 0.84,
			MaxGroupSize:     10,
		},
		Canonical: CanonicalConfig{
			MinConfidence: 0.60,
		},
		Parser: ParserConfig{
			Timeout: 45 * time.Second,
		},
		Intake: IntakeConfig{
			MaxParallel:   0,
			FullScanBelow: 64,
		},
	}
}

// LoadConfig reads a YAML threshold file over the defaults. A missing path
// returns the defaults untouched.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks threshold sanity.
func (c *Config) Validate() error {
	if c.Dedupe.ConfidenceThreshold < 0 || c.Dedupe.ConfidenceThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "dedupe.confidence_threshold must be in [0,1]", ErrInvalidInput)
	}
	if c.Stitch.ScoreMin < 0 || c.Stitch.ScoreMin > 1 {
		return NewAppError("CONFIG_ERROR", "stitch.score_min must be in [0,1]", ErrInvalidInput)
	}
	if c.Canonical.MinConfidence < 0 || c.Canonical.MinConfidence > 1 {
		return NewAppError("CONFIG_ERROR", "canonical.min_confidence must be in [0,1]", ErrInvalidInput)
	}
	if c.Stitch.MaxGroupSize < 2 {
		return NewAppError("CONFIG_ERROR", "stitch.max_group_size must be at least 2", ErrInvalidInput)
	}
	return nil
}
