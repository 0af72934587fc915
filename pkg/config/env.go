package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DBCFORGE_"

// ApplyEnv loads envFile, if it exists, into the process environment and then
// applies DBCFORGE_* variables on top of config. Variables already set in the
// environment win over the file.
func ApplyEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	strs := map[string]*string{
		"DATA_DIR":      &config.DataDir,
		"SCHEMA_FILE":   &config.SchemaFile,
		"DEFAULT_BUILD": &config.DefaultBuild,
		"BIND":          &config.Bind,
		"API_KEY":       &config.Security.APIKey,
		"LOG_LEVEL":     &config.Logging.Level,
		"LOG_FORMAT":    &config.Logging.Format,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT %q: %w", EnvPrefix, v, err)
		}
		config.Port = port
	}
	return nil
}
