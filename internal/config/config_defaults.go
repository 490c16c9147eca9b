package config

import (
	_ "embed"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var defaults Config

func init() {
	cfg, err := newDefault()
	if err != nil {
		panic(err)
	}
	defaults = *cfg
}

func newDefault() (*Config, error) {
	return parseYAML(&Config{}, defaultsYAML)
}
