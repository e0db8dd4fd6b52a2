/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads store coordinates from .env files and the environment.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"

	"github.com/suparena/docrepo/datastore/mongodb"
	"github.com/suparena/docrepo/errors"
)

// Backend names a store driver.
type Backend string

const (
	BackendDynamoDB Backend = "ddb"
	BackendMongoDB  Backend = "mongodb"
	BackendMemory   Backend = "memory"
)

const tagName = "env"

// DynamoDB holds the coordinates of a DynamoDB table.
type DynamoDB struct {
	AccessKey string `env:"AWS_ACCESS_KEY"`
	SecretKey string `env:"AWS_SECRET_KEY"`
	Region    string `env:"AWS_REGION"`
	Table     string `env:"AWS_DDB_TABLE"`
	Endpoint  string `env:"AWS_DDB_ENDPOINT"`
	// DedicatedTable is set when the table holds a single collection.
	DedicatedTable bool `env:"AWS_DDB_DEDICATED_TABLE"`
}

// MongoDB holds the coordinates of a MongoDB database.
type MongoDB struct {
	URL             string `env:"MONGO_URL"`
	Database        string `env:"MONGO_DATABASE"`
	ConnectAttempts int    `env:"MONGO_CONNECT_ATTEMPTS"`
}

// Config is the runtime configuration.
type Config struct {
	Backend Backend `env:"DOCREPO_BACKEND"`
	// Schema is the path of a YAML schema declaring collections and references.
	Schema string `env:"DOCREPO_SCHEMA"`

	DynamoDB DynamoDB `env:",squash"`
	MongoDB  MongoDB  `env:",squash"`
}

// Default returns the configuration used for unset variables.
func Default() Config {
	return Config{
		Backend: BackendDynamoDB,
		MongoDB: MongoDB{
			URL:             mongodb.DefaultURL,
			ConnectAttempts: mongodb.DefaultConnectAttempts,
		},
	}
}

// Load reads the given .env files (".env" when none are given, ignored if
// missing) into the environment, then returns the validated configuration.
// Variables already set in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", strings.Join(files, ", "), err)
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv decodes the environment on top of Default. It does not validate.
func FromEnv() (*Config, error) {
	input := make(map[string]any)
	for _, key := range Keys() {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			input[key] = v
		}
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          tagName,
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return nil, errors.NewValidationError("environment", err.Error())
	}
	cfg.Backend = Backend(strings.ToLower(string(cfg.Backend)))
	return &cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return errors.NewValidationError("AWS_DDB_TABLE", "required for the ddb backend")
		}
		if c.DynamoDB.Region == "" {
			return errors.NewValidationError("AWS_REGION", "required for the ddb backend")
		}
		if (c.DynamoDB.AccessKey == "") != (c.DynamoDB.SecretKey == "") {
			return errors.NewValidationError("AWS_ACCESS_KEY", "access and secret keys must be set together")
		}
	case BackendMongoDB:
		if c.MongoDB.Database == "" {
			return errors.NewValidationError("MONGO_DATABASE", "required for the mongodb backend")
		}
		if c.MongoDB.ConnectAttempts < 1 {
			return errors.NewValidationError("MONGO_CONNECT_ATTEMPTS", "must be at least 1")
		}
	case BackendMemory:
	default:
		return errors.NewValidationError("DOCREPO_BACKEND", fmt.Sprintf("unknown backend %q", c.Backend))
	}
	return nil
}

// Keys lists every environment variable read by FromEnv.
func Keys() []string {
	return collectKeys(reflect.TypeOf(Config{}), nil)
}

func collectKeys(t reflect.Type, keys []string) []string {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get(tagName), ",")
		if opts == "squash" && f.Type.Kind() == reflect.Struct {
			keys = collectKeys(f.Type, keys)
			continue
		}
		if name != "" {
			keys = append(keys, name)
		}
	}
	return keys
}
