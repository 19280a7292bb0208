// Package config loads the service's runtime configuration, layering an
// optional YAML file under environment variable overrides via koanf.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the PCG analyzer service's runtime configuration.
type Config struct {
	ServerPort      string `koanf:"server_port"`
	MediaBaseURL    string `koanf:"media_base_url"`
	CacheBaseURL    string `koanf:"cache_base_url"`
	AWSRegion       string `koanf:"aws_region"`
	MediaBucketName string `koanf:"media_bucket_name"`
	CacheTableName  string `koanf:"cache_table_name"`
	UseHSMMDefault  bool   `koanf:"use_hsmm_default"`
}

func defaults() Config {
	return Config{
		ServerPort:     "8080",
		AWSRegion:      "us-east-1",
		UseHSMMDefault: true,
	}
}

// Load builds the Config from, in increasing priority: built-in
// defaults, the optional YAML file named by PCG_CONFIG_FILE, and
// PCG_-prefixed environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")
	cfg := defaults()

	if path := os.Getenv("PCG_CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	envProvider := env.Provider("PCG_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "PCG_")
		return strings.ToLower(s)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsLambda returns true when running under AWS Lambda.
func IsLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}
