/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// DefaultURL is used when no connection URL is given.
	DefaultURL = "mongodb://localhost:27017"
	// DefaultConnectAttempts bounds Connect.
	DefaultConnectAttempts = 10
)

type connectConfig struct {
	maxAttempts   int
	retryBackoff  time.Duration
	logger        *slog.Logger
	clientOptions *options.ClientOptions
}

// ConnectOption configures Connect and ConnectOnce.
type ConnectOption func(*connectConfig)

// WithMaxAttempts sets how many connection attempts Connect makes.
func WithMaxAttempts(n int) ConnectOption {
	return func(c *connectConfig) {
		c.maxAttempts = n
	}
}

// WithRetryBackoff sets the pause between attempts; it grows linearly.
func WithRetryBackoff(d time.Duration) ConnectOption {
	return func(c *connectConfig) {
		c.retryBackoff = d
	}
}

// WithLogger sets the logger reporting failed attempts.
func WithLogger(logger *slog.Logger) ConnectOption {
	return func(c *connectConfig) {
		c.logger = logger
	}
}

// WithClientOptions merges additional driver options, applied after the URL.
func WithClientOptions(opts *options.ClientOptions) ConnectOption {
	return func(c *connectConfig) {
		c.clientOptions = opts
	}
}

func newConnectConfig(opts []ConnectOption) connectConfig {
	cfg := connectConfig{
		maxAttempts:  DefaultConnectAttempts,
		retryBackoff: 500 * time.Millisecond,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxAttempts < 1 {
		cfg.maxAttempts = 1
	}
	return cfg
}

// ConnectOnce connects to url and verifies the connection with a ping. It
// makes a single attempt.
func ConnectOnce(ctx context.Context, url string, opts ...ConnectOption) (*mongo.Client, error) {
	return connectOnce(ctx, url, newConnectConfig(opts))
}

func connectOnce(ctx context.Context, url string, cfg connectConfig) (*mongo.Client, error) {
	if url == "" {
		url = DefaultURL
	}

	clientOpts := []*options.ClientOptions{options.Client().ApplyURI(url)}
	if cfg.clientOptions != nil {
		clientOpts = append(clientOpts, cfg.clientOptions)
	}

	client, err := mongo.Connect(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// Connect connects to url, retrying failed attempts up to the configured
// maximum (10 by default).
func Connect(ctx context.Context, url string, opts ...ConnectOption) (*mongo.Client, error) {
	cfg := newConnectConfig(opts)

	var lastErr error
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		client, err := connectOnce(ctx, url, cfg)
		if err == nil {
			cfg.logger.Info("connected to mongodb", "attempt", attempt)
			return client, nil
		}
		lastErr = err
		cfg.logger.Warn("mongodb connection attempt failed",
			"attempt", attempt,
			"max_attempts", cfg.maxAttempts,
			"error", err,
		)

		if attempt == cfg.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * cfg.retryBackoff):
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", cfg.maxAttempts, lastErr)
}
