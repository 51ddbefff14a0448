package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig is the optional --config file shape for the serve command.
// It supplies defaults; any flag the user actually passed on the command
// line overrides the matching field here.
type fileConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Workers     int    `yaml:"workers"`
	MetricsAddr string `yaml:"metricsAddr"`
	Secret      string `yaml:"secret"`
	LogLevel    string `yaml:"logLevel"`
	LogJSON     bool   `yaml:"logJSON"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vectord: read config file: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("vectord: parse config file: %w", err)
	}

	return &cfg, nil
}

// applyFileConfig fills a flag from cfg only when the flag was not
// explicitly set on the command line, so flags always win over the file.
func applyFileConfig(flags *cobra.Command, cfg *fileConfig) {
	setIfUnset := func(name, value string) {
		if value != "" && !flags.Flags().Changed(name) {
			_ = flags.Flags().Set(name, value)
		}
	}

	setIfUnset("host", cfg.Host)
	if cfg.Port != 0 {
		setIfUnset("port", strconv.Itoa(cfg.Port))
	}
	if cfg.Workers != 0 {
		setIfUnset("workers", strconv.Itoa(cfg.Workers))
	}
	setIfUnset("metrics-addr", cfg.MetricsAddr)
	setIfUnset("secret", cfg.Secret)
	setIfUnset("log-level", cfg.LogLevel)
	if cfg.LogJSON {
		setIfUnset("log-json", "true")
	}
}
