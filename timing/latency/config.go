// Package latency holds the access-latency defaults shared by the cache
// driver. It used to also carry per-instruction pipeline latencies; the
// cache controller only needs the memory-hierarchy numbers.
package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the memory-hierarchy latency values consumed by
// timing/cache when a cache.Config does not override them directly. Values
// are based on Apple M2 microarchitecture estimates.
type TimingConfig struct {
	// L1HitLatency is the L1 data/instruction cache hit latency, in cycles.
	L1HitLatency uint64 `json:"l1_hit_latency"`

	// L2HitLatency is the L2 cache hit latency, in cycles.
	L2HitLatency uint64 `json:"l2_hit_latency"`

	// L3HitLatency is the L3 cache hit latency, in cycles.
	L3HitLatency uint64 `json:"l3_hit_latency"`

	// MemoryLatency is the main memory access latency, in cycles.
	MemoryLatency uint64 `json:"memory_latency"`
}

// DefaultTimingConfig returns a TimingConfig with M2-based default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		L1HitLatency:  4,
		L2HitLatency:  12,
		L3HitLatency:  30,
		MemoryLatency: 150,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.L1HitLatency == 0 {
		return fmt.Errorf("l1_hit_latency must be > 0")
	}
	if c.L2HitLatency == 0 {
		return fmt.Errorf("l2_hit_latency must be > 0")
	}
	if c.L3HitLatency == 0 {
		return fmt.Errorf("l3_hit_latency must be > 0")
	}
	if c.MemoryLatency == 0 {
		return fmt.Errorf("memory_latency must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
