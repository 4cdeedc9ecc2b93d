package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/gophevents/internal/flagx"
)

const defaultEnvFile = ".env"

// parseEnv overlays environment variables on top of config. A dotenv file
// (-env flag, default ".env") is loaded first when it exists; variables
// already present in the process environment are not overridden by it.
// Unset variables leave the current field value untouched.
func parseEnv(config *Config) error {
	path := flagx.LookupString(defaultEnvFile, "env")

	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("error loading %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error checking %s: %w", path, err)
	}

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("error parsing environment: %w", err)
	}
	return nil
}
