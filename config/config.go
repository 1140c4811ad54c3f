// Package config loads benchmark settings from a YAML file.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/Hakuto4838/HashPipe.git/skiplist/hashpipe"
)

type Config struct {
	Hash      string   `yaml:"hash"`
	Keys      int      `yaml:"keys"`
	Ops       int      `yaml:"ops"`
	ZipfA     float64  `yaml:"zipf_a"` // 0 表示均勻分布
	ZipfB     float64  `yaml:"zipf_b"`
	GetRatio  float64  `yaml:"get_ratio"`
	MissRatio float64  `yaml:"miss_ratio"`
	Seed      uint64   `yaml:"seed"`
	Runs      int      `yaml:"runs"`
	Workers   int      `yaml:"workers"`
	Impls     []string `yaml:"impls"`
	BloomFP   float64  `yaml:"bloom_fp"`
	LogLevel  string   `yaml:"log_level"`
}

var knownImpls = map[string]bool{"hashpipe": true, "bloompipe": true, "basic": true}

func Default() *Config {
	return &Config{
		Hash:      "xxhash",
		Keys:      10000,
		Ops:       100000,
		ZipfA:     1.07,
		GetRatio:  0.9,
		MissRatio: 0.1,
		Seed:      42,
		Runs:      5,
		Workers:   4,
		Impls:     []string{"hashpipe", "bloompipe", "basic"},
		BloomFP:   0.01,
		LogLevel:  "info",
	}
}

// Load 讀取 YAML 設定；檔案中沒寫的欄位沿用 Default()
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error while reading config file: %s", path)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "error while parsing config file: %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file: %s", path)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "error while encoding config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "error while writing config file: %s", path)
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := hashpipe.HasherByName(c.Hash); err != nil {
		return err
	}
	if c.Keys <= 0 {
		return errors.Errorf("keys must be positive, got %d", c.Keys)
	}
	if c.Ops < 0 {
		return errors.Errorf("ops must not be negative, got %d", c.Ops)
	}
	if c.ZipfA < 0 {
		return errors.Errorf("zipf_a must not be negative, got %v", c.ZipfA)
	}
	if c.GetRatio < 0 || c.GetRatio > 1 {
		return errors.Errorf("get_ratio must be in [0,1], got %v", c.GetRatio)
	}
	if c.MissRatio < 0 || c.MissRatio > 1 {
		return errors.Errorf("miss_ratio must be in [0,1], got %v", c.MissRatio)
	}
	if c.Runs <= 0 {
		return errors.Errorf("runs must be positive, got %d", c.Runs)
	}
	if c.Workers <= 0 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.BloomFP <= 0 || c.BloomFP >= 1 {
		return errors.Errorf("bloom_fp must be in (0,1), got %v", c.BloomFP)
	}
	if len(c.Impls) == 0 {
		return errors.New("impls must not be empty")
	}
	for i, impl := range c.Impls {
		impl = strings.TrimSpace(strings.ToLower(impl))
		if !knownImpls[impl] {
			return errors.Errorf("unknown impl: %q", impl)
		}
		c.Impls[i] = impl
	}
	return nil
}
