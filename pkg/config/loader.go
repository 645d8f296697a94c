// Package config fills env-tagged structs from the process environment,
// optionally seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DefaultDotEnv is read by LoadDotEnv when no paths are given.
const DefaultDotEnv = ".env"

// Load populates cfg, a pointer to a struct using caarlos0/env tags such as
// `env:"HTTP_PORT" envDefault:"5000"`.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadDotEnv copies the variables of each existing file into the process
// environment. Variables that are already set keep their value, and absent
// files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{DefaultDotEnv}
	}
	for _, p := range paths {
		err := godotenv.Load(p)
		switch {
		case err == nil, errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
