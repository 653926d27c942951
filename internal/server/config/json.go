package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dkovalev/notelist/internal/flagx"
	"github.com/dkovalev/notelist/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "24h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP        string         `json:"endpoint_addr_http"`
	EndpointAddrMetrics     string         `json:"endpoint_addr_metrics"`
	DatabaseDSN             string         `json:"database_dsn"`
	SessionSecret           string         `json:"session_secret"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	BcryptCost              int            `json:"bcrypt_cost"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
//
// The caller is expected to merge these values with defaults and command-line
// flags as part of the full configuration process.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.EndpointAddrMetrics = c.EndpointAddrMetrics
	config.DatabaseDSN = c.DatabaseDSN
	config.SessionSecret = c.SessionSecret
	config.SessionValidityDuration = time.Duration(c.SessionValidityDuration.Duration)
	config.BcryptCost = c.BcryptCost
}
