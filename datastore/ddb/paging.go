/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/suparena/docrepo/storagemodels"
)

// page is one page of a Query or Scan.
type page struct {
	items   []map[string]types.AttributeValue
	count   int32
	lastKey map[string]types.AttributeValue
}

// pageFunc fetches the page starting after startKey.
type pageFunc func(ctx context.Context, startKey map[string]types.AttributeValue) (page, error)

// paginate walks every page of fetch, calling visit until it returns false
// or the last page was seen. Each page is fetched with retry.
func paginate(ctx context.Context, fetch pageFunc, options storagemodels.PageOptions, visit func(page) (bool, error)) error {
	progress := storagemodels.PageProgress{StartTime: time.Now()}

	var startKey map[string]types.AttributeValue
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		p, err := withRetry(ctx, options, func() (page, error) {
			return fetch(ctx, startKey)
		})
		if err != nil {
			return err
		}

		progress.PagesProcessed++
		progress.ItemsProcessed += int64(len(p.items))
		if options.ProgressHandler != nil {
			options.ProgressHandler(progress)
		}

		more, err := visit(p)
		if err != nil || !more {
			return err
		}
		if len(p.lastKey) == 0 {
			return nil
		}
		startKey = p.lastKey
	}
}

// withRetry executes call, retrying transient failures with linear backoff.
func withRetry[R any](ctx context.Context, options storagemodels.PageOptions, call func() (R, error)) (R, error) {
	var zero R
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		out, err := call()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return zero, err
		}

		// Don't sleep after last attempt
		if attempt < options.MaxRetries {
			backoff := time.Duration(attempt+1) * options.RetryBackoff
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return zero, fmt.Errorf("request failed after %d retries: %w", options.MaxRetries, lastErr)
}

var retryableCodes = map[string]bool{
	"ProvisionedThroughputExceededException": true,
	"RequestLimitExceeded":                   true,
	"ThrottlingException":                    true,
	"InternalServerError":                    true,
	"ServiceUnavailable":                     true,
}

// isRetryableError determines if a DynamoDB error is transient.
func isRetryableError(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var limit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if errors.As(err, &throughput) || errors.As(err, &limit) || errors.As(err, &internal) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return retryableCodes[apiErr.ErrorCode()]
	}

	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}
