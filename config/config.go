// Package config loads the benchmark matrix from an optional YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/weiihann/setbench/container"
	"github.com/weiihann/setbench/harness"
	"github.com/weiihann/setbench/keygen"
	"github.com/weiihann/setbench/workload"
)

// Config describes one benchmark run. Zero sizes and "none" names are
// allowed and produce skipped cells.
//
// Sizes are capped at 1<<26: key generators are sized at four keys per
// element before any case runs.
type Config struct {
	Sizes      []int    `yaml:"sizes" validate:"required,min=1,dive,gte=0,lte=67108864"`
	Types      []string `yaml:"types" validate:"required,min=1,dive,oneof=uint64 string none"`
	Containers []string `yaml:"containers" validate:"required,min=1,dive,required"`
	Workloads  []string `yaml:"workloads" validate:"required,min=1,dive,oneof=insert delete search-hit search-miss search-mixed rand-workload none"`
	OpsBudget  int      `yaml:"ops_budget" validate:"gte=1"`
	Seed       int64    `yaml:"seed"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in matrix: three sizes, both key types, every
// registered container and every workload.
func Default() *Config {
	cfg := &Config{
		Sizes:      []int{1024, 32768, 1048576},
		Containers: container.Names(),
		OpsBudget:  harness.DefaultOpsBudget,
		Seed:       keygen.DefaultSeed,
	}

	for _, t := range keygen.Types() {
		cfg.Types = append(cfg.Types, t.String())
	}
	for _, k := range workload.Kinds() {
		cfg.Workloads = append(cfg.Workloads, k.ID())
	}

	return cfg
}

// Load reads path over the defaults. Keys absent from the file keep their
// default values. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks field constraints and that every container name is
// registered.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for _, name := range c.Containers {
		if name != container.None && !container.Known(name) {
			return fmt.Errorf("unknown container %q (known: %v)", name, container.Names())
		}
	}

	return nil
}

// Matrix converts the configuration into the harness matrix.
func (c *Config) Matrix() (harness.Matrix, error) {
	types := make([]keygen.Type, 0, len(c.Types))
	for _, name := range c.Types {
		t, err := keygen.ParseType(name)
		if err != nil {
			return harness.Matrix{}, err
		}
		types = append(types, t)
	}

	kinds := make([]workload.Kind, 0, len(c.Workloads))
	for _, name := range c.Workloads {
		k, err := workload.ParseKind(name)
		if err != nil {
			return harness.Matrix{}, err
		}
		kinds = append(kinds, k)
	}

	return harness.NewMatrix(c.Sizes, types, c.Containers, kinds), nil
}
