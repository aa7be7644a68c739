package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	var (
		addr = "localhost:8080"
		dsn  = "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"
		orig = []string{"http://localhost:3000"}
	)

	tcases := []struct {
		name string
		addr string
		dsn  string
		orig []string
		err  bool
	}{
		{
			name: "valid config",
			addr: addr,
			dsn:  dsn,
			orig: orig,
			err:  false,
		},
		{
			name: "empty address",
			addr: "",
			dsn:  dsn,
			orig: orig,
			err:  true,
		},
		{
			name: "empty DSN",
			addr: addr,
			dsn:  "",
			orig: orig,
			err:  true,
		},
		{
			name: "no origins is allowed",
			addr: addr,
			dsn:  dsn,
			orig: nil,
			err:  false,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			config, err := NewConfig(tc.addr, tc.dsn, tc.orig)
			if tc.err {
				assert.Error(t, err, "expected error for config: %s", tc.name)
				return
			}
			assert.NoError(t, err, "expected no error for config: %s", tc.name)

			assert.Equal(t, tc.addr, config.ServerAddr, "expected server address to match")
			assert.Equal(t, tc.dsn, config.DatabaseDSN, "expected database DSN to match")
			assert.Equal(t, tc.orig, config.AllowedOrigins, "expected allowed origins to match")
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("parses yaml config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := []byte("server_addr: localhost:9000\ndatabase_dsn: host=db user=postgres\nallowed_origins:\n  - http://localhost:3000\n")
		require.NoError(t, os.WriteFile(path, data, 0o644))

		cfg, err := LoadFile(path)
		assert.NoError(t, err, "expected config file to load")
		assert.Equal(t, "localhost:9000", cfg.ServerAddr, "expected server address from file")
		assert.Equal(t, "host=db user=postgres", cfg.DatabaseDSN, "expected DSN from file")
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins, "expected origins from file")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err, "expected error for missing file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server_addr: [unclosed"), 0o644))

		_, err := LoadFile(path)
		assert.Error(t, err, "expected error for invalid yaml")
	})
}
