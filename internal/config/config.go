package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultVariant       = "ising"
	DefaultDataDir       = ".physsm"
	DefaultPrecision     = 3
	DefaultWorkers       = 4
	DefaultSchemaVariant = "custom"

	maxPrecision = 12
)

type Config struct {
	Variant          string `yaml:"variant"`
	DataDir          string `yaml:"data_dir"`
	RejectDuplicates bool   `yaml:"reject_duplicates"`
	Verbose          bool   `yaml:"verbose"`
	Precision        int    `yaml:"precision"`
	Workers          int    `yaml:"workers"`
	SchemaFile       string `yaml:"schema_file"`
	SchemaVariant    string `yaml:"schema_variant"`
	StoreRuns        bool   `yaml:"store_runs"`
}

func DefaultConfig() *Config {
	return &Config{
		Variant:       DefaultVariant,
		DataDir:       DefaultDataDir,
		Precision:     DefaultPrecision,
		Workers:       DefaultWorkers,
		SchemaVariant: DefaultSchemaVariant,
		StoreRuns:     true,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Variant == "" {
		return fmt.Errorf("variant must not be empty")
	}
	if c.Precision < 0 || c.Precision > maxPrecision {
		return fmt.Errorf("precision must be between 0 and %d, got %d", maxPrecision, c.Precision)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.SchemaFile != "" && c.SchemaVariant == "" {
		return fmt.Errorf("schema_variant must be set when schema_file is used")
	}
	return nil
}
