package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/OpenPeeDeeP/xdg"
	"gopkg.in/yaml.v3"
)

// Config holds endpoint aliases, so call targets do not need full URLs
// and credentials on every invocation.
type Config struct {
	Endpoints map[string]EndpointConfig `yaml:"endpoints"`
}

// EndpointConfig describes one aliased endpoint. The url, credential and
// header values may reference environment variables with ${VAR}
// placeholders.
type EndpointConfig struct {
	URL      string            `yaml:"url"`
	Headers  map[string]string `yaml:"headers"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
}

// findConfig returns the config file path, preferring the override when
// given over an XDG config lookup.
func findConfig(overridePath string) string {
	if overridePath != "" {
		return overridePath
	}
	return xdg.New("wirecall", "").QueryConfig("config.yml")
}

// loadConfig reads and expands a config file. An empty path yields an
// empty config.
func loadConfig(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrExplain{err, fmt.Sprintf("Could not read the config file at %q.", path)}
	}
	var config Config
	if err := yaml.Unmarshal(body, &config); err != nil {
		return nil, ErrExplain{err, fmt.Sprintf("Could not parse the config file at %q. It should be YAML with an endpoints mapping.", path)}
	}
	for name, endpoint := range config.Endpoints {
		endpoint.URL = os.ExpandEnv(endpoint.URL)
		endpoint.Username = os.ExpandEnv(endpoint.Username)
		endpoint.Password = os.ExpandEnv(endpoint.Password)
		for header, value := range endpoint.Headers {
			endpoint.Headers[header] = os.ExpandEnv(value)
		}
		config.Endpoints[name] = endpoint
	}
	logger.Debugf("Loaded config with %d endpoint(s): %s", len(config.Endpoints), path)
	return &config, nil
}

// resolveEndpoint maps an endpoint argument to its connection details,
// through the config when the argument is an alias.
func resolveEndpoint(endpoint string, config *Config) (EndpointConfig, error) {
	if cfg, ok := config.Endpoints[endpoint]; ok {
		if cfg.URL == "" {
			return EndpointConfig{}, ErrExplain{
				fmt.Errorf("endpoint alias %q has no url", endpoint),
				"Add a url field to the alias entry in the config file.",
			}
		}
		return cfg, nil
	}
	if strings.Contains(endpoint, "://") {
		return EndpointConfig{URL: endpoint}, nil
	}
	return EndpointConfig{}, ErrExplain{
		fmt.Errorf("unknown endpoint alias: %q", endpoint),
		"Use a full URL (https:// or ws://), or add the alias to the config file.",
	}
}
