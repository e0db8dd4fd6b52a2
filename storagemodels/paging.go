/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import "time"

// PageOptions configures how drivers walk paged store results.
type PageOptions struct {
	PageSize     int32         // Items per page (default: 100)
	MaxRetries   int           // Retry attempts for transient errors (default: 3)
	RetryBackoff time.Duration // Backoff between retries, grows linearly (default: 1s)
	// ProgressHandler is called after every page with the running totals.
	ProgressHandler func(PageProgress)
}

// PageProgress tracks paging progress
type PageProgress struct {
	ItemsProcessed int64
	PagesProcessed int
	StartTime      time.Time
}

// PageOption is a functional option for configuring paging
type PageOption func(*PageOptions)

// DefaultPageOptions returns default paging options
func DefaultPageOptions() PageOptions {
	return PageOptions{
		PageSize:     100,
		MaxRetries:   3,
		RetryBackoff: time.Second,
	}
}

// NewPageOptions applies opts on top of the defaults.
func NewPageOptions(opts ...PageOption) PageOptions {
	options := DefaultPageOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithPageSize sets the page size
func WithPageSize(size int32) PageOption {
	return func(opts *PageOptions) {
		opts.PageSize = size
	}
}

// WithMaxRetries sets the maximum retry attempts
func WithMaxRetries(retries int) PageOption {
	return func(opts *PageOptions) {
		opts.MaxRetries = retries
	}
}

// WithRetryBackoff sets the retry backoff duration
func WithRetryBackoff(backoff time.Duration) PageOption {
	return func(opts *PageOptions) {
		opts.RetryBackoff = backoff
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(PageProgress)) PageOption {
	return func(opts *PageOptions) {
		opts.ProgressHandler = handler
	}
}
