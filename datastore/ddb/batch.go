/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/storagemodels"
)

// maxBatchGetKeys is the BatchGetItem request limit.
const maxBatchGetKeys = 100

// fetch loads records of collection by identifier for population.
func (s *Store) fetch(ctx context.Context, collection string, ids []string) (map[string]document.Record, error) {
	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	out := make(map[string]document.Record, len(ids))
	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		key, ok, err := c.keyForID(id)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, key)
			continue
		}
		r, err := c.FindOne(ctx, storagemodels.ByID(id))
		if err != nil {
			return nil, err
		}
		if r != nil {
			out[id] = r
		}
	}

	for start := 0; start < len(keys); start += maxBatchGetKeys {
		end := min(start+maxBatchGetKeys, len(keys))
		if err := c.batchGet(ctx, keys[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// batchGet reads one chunk of keys, retrying unprocessed keys.
func (c *Collection) batchGet(ctx context.Context, keys []map[string]types.AttributeValue, out map[string]document.Record) error {
	options := c.store.pageOptions
	pending := keys

	for attempt := 0; len(pending) > 0; attempt++ {
		resp, err := withRetry(ctx, options, func() (*sdk.BatchGetItemOutput, error) {
			return c.store.client.BatchGetItem(ctx, &sdk.BatchGetItemInput{
				RequestItems: map[string]types.KeysAndAttributes{
					c.store.tableName: {Keys: pending},
				},
			})
		})
		if err != nil {
			return fmt.Errorf("BatchGetItem error: %w", err)
		}

		for _, item := range resp.Responses[c.store.tableName] {
			r, err := c.fromItem(item)
			if err != nil {
				return err
			}
			if r != nil {
				out[r.ID()] = r
			}
		}

		pending = resp.UnprocessedKeys[c.store.tableName].Keys
		if len(pending) == 0 {
			return nil
		}
		if attempt >= options.MaxRetries {
			return fmt.Errorf("BatchGetItem left %d keys unprocessed after %d retries", len(pending), options.MaxRetries)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * options.RetryBackoff):
		}
	}
	return nil
}
