package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "zi", config.OutputDir)
	assert.Equal(t, 1900, config.StartYear)
	assert.Equal(t, 2037, config.EndYear)
	assert.Equal(t, 0, config.SingleYear)
	assert.Equal(t, 1, config.Workers)
	assert.Equal(t, "warning", config.Logging.Level)
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "javazic.yaml")
		data := `
output_dir: /tmp/zi
version: 2024b
sources: [africa, europe]
end_year: 2050
workers: 4
logging:
  level: info
`
		require.NoError(t, os.WriteFile(configPath, []byte(data), 0o600))

		config, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/zi", config.OutputDir)
		assert.Equal(t, "2024b", config.Version)
		assert.Equal(t, []string{"africa", "europe"}, config.Sources)
		assert.Equal(t, 1900, config.StartYear, "defaults are kept")
		assert.Equal(t, 2050, config.EndYear)
		assert.Equal(t, 4, config.Workers)
		assert.Equal(t, "info", config.Logging.Level)
		assert.NoError(t, config.Validate())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("workers: [1, 2"), 0o600))
		_, err := LoadConfig(configPath)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Sources = []string{"northamerica"}
		return c
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"no output dir":     func(c *Config) { c.OutputDir = "" },
		"years reversed":    func(c *Config) { c.StartYear, c.EndYear = 2000, 1999 },
		"zero start year":   func(c *Config) { c.StartYear = 0 },
		"zero end year":     func(c *Config) { c.EndYear = 0 },
		"negative year":     func(c *Config) { c.SingleYear = -1 },
		"no workers":        func(c *Config) { c.Workers = 0 },
		"no input":          func(c *Config) { c.Sources = nil },
		"two inputs":        func(c *Config) { c.Fetch = true },
		"unknown log level": func(c *Config) { c.Logging.Level = "loud" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	c := valid()
	c.StartYear, c.EndYear, c.SingleYear = 2000, 1999, 2010
	assert.NoError(t, c.Validate(), "years are ignored in single year mode")
}
