package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected *Config
		name     string
		args     []string
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-m", "127.0.0.1:9100", "-d", "db",
			"-s", "secret", "-t", "60", "-w", "10",
		},
			expected: &Config{
				EndpointAddrHTTP:        "127.0.0.1:9090",
				EndpointAddrMetrics:     "127.0.0.1:9100",
				DatabaseDSN:             "db",
				SessionSecret:           "secret",
				SessionValidityDuration: 60 * time.Minute,
				BcryptCost:              10,
			}},
		{name: "no flags keeps zero values", args: []string{"cmd"},
			expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			require.NotPanics(t, func() { parseFlags(config) })
			assert.Equal(t, tt.expected, config)
		})
	}
}
