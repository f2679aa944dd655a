package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadEnv.
const (
	EnvAPIURL   = "CRAWLDASH_API_URL"
	EnvToken    = "CRAWLDASH_TOKEN"
	EnvProxy    = "CRAWLDASH_PROXY"
	EnvPageSize = "CRAWLDASH_PAGE_SIZE"
)

var envKeys = []string{EnvAPIURL, EnvToken, EnvProxy, EnvPageSize}

// LoadEnv returns the crawldash variables from the dotenv file at path,
// overridden by the process environment. A missing dotenv file is not an
// error. Pass an empty path to read the process environment only.
func LoadEnv(path string) (map[string]string, error) {
	env := make(map[string]string, len(envKeys))

	if path != "" {
		values, err := godotenv.Read(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for _, key := range envKeys {
			if v, ok := values[key]; ok {
				env[key] = v
			}
		}
	}

	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return env, nil
}

// ApplyEnv copies the values returned by LoadEnv onto c.
// Empty values are ignored.
func (c *Config) ApplyEnv(env map[string]string) error {
	if v := env[EnvAPIURL]; v != "" {
		c.APIURL = v
	}
	if v := env[EnvToken]; v != "" {
		c.Token = v
	}
	if v := env[EnvProxy]; v != "" {
		c.ProxyAddress = v
	}
	if v := env[EnvPageSize]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvPageSize, v, ErrInvalidPageSize)
		}
		c.PageSize = n
	}
	return nil
}
