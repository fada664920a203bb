package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sarchlab/m2sim/timing/latency"
)

// Mode selects the inclusion policy a cache enforces with respect to its
// upstream holders (spec §6's "mode" option).
type Mode int

// STANDARD is fully implemented. INCLUSIVE and EXCLUSIVE are recognised by
// configuration but not yet implemented; constructing a cache with either
// is a fatal configuration error (spec §7).
const (
	Standard Mode = iota
	Inclusive
	ExclusiveMode
)

func (m Mode) String() string {
	switch m {
	case Standard:
		return "STANDARD"
	case Inclusive:
		return "INCLUSIVE"
	case ExclusiveMode:
		return "EXCLUSIVE"
	default:
		return "UNKNOWN"
	}
}

// parseMode converts a configuration string into a Mode.
func parseMode(s string) (Mode, error) {
	switch s {
	case "", "STANDARD":
		return Standard, nil
	case "INCLUSIVE":
		return Inclusive, nil
	case "EXCLUSIVE":
		return ExclusiveMode, nil
	default:
		return Standard, &ConfigError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", s)}
	}
}

// Config holds the options a cache controller is built from, matching
// spec §6's configuration table.
type Config struct {
	NumWays   int    `json:"num_ways"`
	NumRows   int    `json:"num_rows"`
	BlockSize int    `json:"blocksize"`
	Mode      string `json:"mode"`

	// AccessTime is the access latency, in cycles, used for self-link
	// scheduling on a hit or miss resolution.
	AccessTime uint64 `json:"access_time"`

	NumUpstream int    `json:"num_upstream"`
	NextLevel   string `json:"next_level"`
	NetAddr     string `json:"net_addr"`
	Prefetcher  string `json:"prefetcher"`

	// IsL1 is an explicit override for whether this cache is the
	// first-level cache that talks directly to a CPU, rather than
	// inferring the role from the first request observed (spec §9: role
	// detection by first request is fragile under prefetcher-only
	// traffic).
	IsL1 bool `json:"is_l1"`
}

// DefaultL1Config returns configuration defaults for a first-level cache.
// Its access time is drawn from timing/latency's M2-based estimates rather
// than a bare literal.
func DefaultL1Config() *Config {
	lat := latency.DefaultTimingConfig()
	return &Config{
		NumWays:     8,
		NumRows:     128,
		BlockSize:   64,
		Mode:        "STANDARD",
		AccessTime:  lat.L1HitLatency,
		NumUpstream: 1,
		NextLevel:   "L2",
		IsL1:        true,
	}
}

// DefaultL2Config returns configuration defaults for a shared mid-level
// cache.
func DefaultL2Config() *Config {
	lat := latency.DefaultTimingConfig()
	return &Config{
		NumWays:     12,
		NumRows:     512,
		BlockSize:   64,
		Mode:        "STANDARD",
		AccessTime:  lat.L2HitLatency,
		NumUpstream: 4,
		NextLevel:   "NONE",
		IsL1:        false,
	}
}

// DefaultL3Config returns configuration defaults for a shared last-level
// cache sized for L3-class residency.
func DefaultL3Config() *Config {
	lat := latency.DefaultTimingConfig()
	return &Config{
		NumWays:     16,
		NumRows:     2048,
		BlockSize:   64,
		Mode:        "STANDARD",
		AccessTime:  lat.L3HitLatency,
		NumUpstream: 8,
		NextLevel:   "NONE",
		IsL1:        false,
	}
}

// ConfigError reports an invalid configuration option (spec §7,
// "Configuration errors ... fatal at init").
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("cache: invalid configuration field %q: %s", e.Field, e.Reason)
}

// Validate checks the configuration for the errors spec §7 calls fatal at
// init: invalid sizing and an unknown or unimplemented mode.
func (c *Config) Validate() error {
	if c.NumWays <= 0 {
		return &ConfigError{Field: "num_ways", Reason: "must be > 0"}
	}
	if c.NumRows <= 0 || c.NumRows&(c.NumRows-1) != 0 {
		return &ConfigError{Field: "num_rows", Reason: "must be a power of two > 0"}
	}
	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return &ConfigError{Field: "blocksize", Reason: "must be a power of two > 0"}
	}
	if c.NumUpstream < 0 {
		return &ConfigError{Field: "num_upstream", Reason: "must be >= 0"}
	}

	mode, err := parseMode(c.Mode)
	if err != nil {
		return err
	}
	if mode != Standard {
		return &ConfigError{Field: "mode", Reason: fmt.Sprintf("%s is not implemented", mode)}
	}

	return nil
}

// LoadConfig reads a Config from a JSON file, starting from the L1
// defaults so omitted fields keep sensible values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache config file: %w", err)
	}

	config := DefaultL1Config()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse cache config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}

	return nil
}

// LoadConfigFromEnv builds a Config from the L1 defaults, an optional JSON
// file, and finally CACHE_* environment variables, in that increasing
// order of precedence. envFile is loaded with godotenv if it exists; a
// missing envFile is not an error, matching godotenv's own convention for
// optional .env files.
func LoadConfigFromEnv(envFile, jsonPath string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	config := DefaultL1Config()
	if jsonPath != "" {
		var err error
		config, err = LoadConfig(jsonPath)
		if err != nil {
			return nil, err
		}
	}

	applyEnvOverride(&config.NumWays, "CACHE_NUM_WAYS")
	applyEnvOverride(&config.NumRows, "CACHE_NUM_ROWS")
	applyEnvOverride(&config.BlockSize, "CACHE_BLOCKSIZE")
	applyEnvOverride(&config.NumUpstream, "CACHE_NUM_UPSTREAM")

	if v, ok := os.LookupEnv("CACHE_MODE"); ok {
		config.Mode = v
	}
	if v, ok := os.LookupEnv("CACHE_NEXT_LEVEL"); ok {
		config.NextLevel = v
	}

	return config, nil
}

func applyEnvOverride(field *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*field = n
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
