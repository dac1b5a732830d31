package model

import "time"

// Config holds all citecheck configuration
type Config struct {
	Corpus       CorpusConfig       `yaml:"corpus" mapstructure:"corpus"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Extraction   ExtractionConfig   `yaml:"extraction" mapstructure:"extraction"`
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	RateLimiting RateLimitConfig    `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// CorpusConfig configures the authority corpus
type CorpusConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`                   // Directory of authority texts
	HeaderBytes int    `yaml:"header_bytes" mapstructure:"header_bytes"` // Size of the opinion header
}

// ConcurrencyConfig sizes the worker pools of both phases
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ExtractionConfig configures the extraction phase
type ExtractionConfig struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"` // Per brief
	Model   string        `yaml:"model" mapstructure:"model"`
}

// VerificationConfig configures the verification phase
type VerificationConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`         // Per attempt
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"` // Retries after the first attempt, per pass
	Backoff    time.Duration `yaml:"backoff" mapstructure:"backoff"`         // Doubles after each attempt
	SecondPass bool          `yaml:"second_pass" mapstructure:"second_pass"` // Retry failed authorities once more
	Model      string        `yaml:"model" mapstructure:"model"`
}

// RateLimitConfig throttles calls to the external service
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // 0 disables
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// LLMConfig selects the provider backing extraction and verification
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model      string `yaml:"model" mapstructure:"model"`       // Default for both phases
	APIKey     string `yaml:"-" mapstructure:"api_key"`         // Never written to config files
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the run-scoped response cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir,omitempty" mapstructure:"dir"` // Adds a disk layer when set
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// OutputConfig configures report output
type OutputConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	JSONPath      string `yaml:"json_path,omitempty" mapstructure:"json_path"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Dir:         "authorities",
			HeaderBytes: DefaultHeaderBytes,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Extraction: ExtractionConfig{
			Timeout: 5 * time.Minute,
		},
		Verification: VerificationConfig{
			Timeout:    10 * time.Minute,
			MaxRetries: 3,
			Backoff:    5 * time.Second,
			SecondPass: true,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 0,
			BurstSize:         1,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o",
			Timeout:   600,
			MaxTokens: 8000,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Output: OutputConfig{
			Path:          "CITECHECK.md",
			IncludeFooter: true,
		},
	}
}
