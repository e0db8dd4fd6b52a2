/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/docrepo/errors"
)

// clearEnv blanks every variable the package reads for the test's duration.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range Keys() {
		t.Setenv(key, "")
	}
}

func TestKeys(t *testing.T) {
	assert.ElementsMatch(t, []string{
		"DOCREPO_BACKEND", "DOCREPO_SCHEMA",
		"AWS_ACCESS_KEY", "AWS_SECRET_KEY", "AWS_REGION", "AWS_DDB_TABLE", "AWS_DDB_ENDPOINT", "AWS_DDB_DEDICATED_TABLE",
		"MONGO_URL", "MONGO_DATABASE", "MONGO_CONNECT_ATTEMPTS",
	}, Keys())
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, BackendDynamoDB, cfg.Backend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URL)
	assert.Equal(t, 10, cfg.MongoDB.ConnectAttempts)
	assert.False(t, cfg.DynamoDB.DedicatedTable)
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCREPO_BACKEND", "MongoDB")
	t.Setenv("MONGO_DATABASE", "pets")
	t.Setenv("MONGO_CONNECT_ATTEMPTS", "3")
	t.Setenv("AWS_DDB_DEDICATED_TABLE", "true")
	t.Setenv("DOCREPO_SCHEMA", "schema.yaml")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, BackendMongoDB, cfg.Backend)
	assert.Equal(t, "pets", cfg.MongoDB.Database)
	assert.Equal(t, 3, cfg.MongoDB.ConnectAttempts)
	assert.True(t, cfg.DynamoDB.DedicatedTable)
	assert.Equal(t, "schema.yaml", cfg.Schema)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGO_CONNECT_ATTEMPTS", "many")

	_, err := FromEnv()
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"ddb without table", Config{Backend: BackendDynamoDB, DynamoDB: DynamoDB{Region: "us-east-1"}}, "AWS_DDB_TABLE"},
		{"ddb without region", Config{Backend: BackendDynamoDB, DynamoDB: DynamoDB{Table: "t"}}, "AWS_REGION"},
		{"ddb with half credentials", Config{Backend: BackendDynamoDB, DynamoDB: DynamoDB{Table: "t", Region: "r", AccessKey: "a"}}, "AWS_ACCESS_KEY"},
		{"ddb", Config{Backend: BackendDynamoDB, DynamoDB: DynamoDB{Table: "t", Region: "r"}}, ""},
		{"mongodb without database", Config{Backend: BackendMongoDB, MongoDB: MongoDB{ConnectAttempts: 1}}, "MONGO_DATABASE"},
		{"mongodb without attempts", Config{Backend: BackendMongoDB, MongoDB: MongoDB{Database: "d"}}, "MONGO_CONNECT_ATTEMPTS"},
		{"memory", Config{Backend: BackendMemory}, ""},
		{"unknown backend", Config{Backend: "redis"}, "DOCREPO_BACKEND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *errors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even empty.
	for _, key := range []string{"DOCREPO_BACKEND", "AWS_DDB_TABLE", "AWS_REGION"} {
		require.NoError(t, os.Unsetenv(key))
	}
	t.Cleanup(func() {
		for _, key := range []string{"DOCREPO_BACKEND", "AWS_DDB_TABLE", "AWS_REGION"} {
			_ = os.Unsetenv(key)
		}
	})

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DOCREPO_BACKEND=ddb\nAWS_DDB_TABLE=docs\nAWS_REGION=ca-central-1\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "docs", cfg.DynamoDB.Table)
	assert.Equal(t, "ca-central-1", cfg.DynamoDB.Region)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
