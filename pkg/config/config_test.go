package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storefrontConfig struct {
	Port      int           `env:"TD_TEST_PORT" envDefault:"5000"`
	Origins   []string      `env:"TD_TEST_ORIGINS" envDefault:"https://tiaadeals.com" envSeparator:","`
	JWTExpiry time.Duration `env:"TD_TEST_JWT_EXPIRY" envDefault:"168h"`
	RPS       float64       `env:"TD_TEST_RPS" envDefault:"5"`
	Redis     bool          `env:"TD_TEST_REDIS_ENABLED"`
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want storefrontConfig
	}{
		{
			name: "defaults",
			want: storefrontConfig{Port: 5000, Origins: []string{"https://tiaadeals.com"}, JWTExpiry: 168 * time.Hour, RPS: 5},
		},
		{
			name: "overrides",
			env: map[string]string{
				"TD_TEST_PORT":          "8080",
				"TD_TEST_ORIGINS":       "http://localhost:5173,https://tiaadeals.com",
				"TD_TEST_JWT_EXPIRY":    "15m",
				"TD_TEST_RPS":           "0.5",
				"TD_TEST_REDIS_ENABLED": "true",
			},
			want: storefrontConfig{
				Port:      8080,
				Origins:   []string{"http://localhost:5173", "https://tiaadeals.com"},
				JWTExpiry: 15 * time.Minute,
				RPS:       0.5,
				Redis:     true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var cfg storefrontConfig
			require.NoError(t, Load(&cfg))
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]map[string]string{
		"bad int":      {"TD_TEST_PORT": "five-thousand"},
		"bad duration": {"TD_TEST_JWT_EXPIRY": "a week"},
		"bad bool":     {"TD_TEST_REDIS_ENABLED": "maybe"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			var cfg storefrontConfig
			err := Load(&cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "parse config")
		})
	}
}

func TestLoad_Required(t *testing.T) {
	var cfg struct {
		Secret string `env:"TD_TEST_SECRET,required"`
	}
	require.Error(t, Load(&cfg))

	t.Setenv("TD_TEST_SECRET", "s3cret")
	require.NoError(t, Load(&cfg))
	assert.Equal(t, "s3cret", cfg.Secret)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TD_TEST_PORT=7000\nTD_TEST_RPS=9\n"), 0o600))

	t.Setenv("TD_TEST_PORT", "6000")
	// Registers cleanup for the variable the file introduces.
	t.Setenv("TD_TEST_RPS", "")
	require.NoError(t, os.Unsetenv("TD_TEST_RPS"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))

	var cfg storefrontConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, 6000, cfg.Port, "environment wins over the file")
	assert.Equal(t, 9.0, cfg.RPS)
}

func TestLoadDotEnv_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NOT A VALID LINE\n"), 0o600))

	err := LoadDotEnv(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
