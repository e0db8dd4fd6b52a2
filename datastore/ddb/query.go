/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/storagemodels"
)

// queryPlan is the request shape chosen for a filter: a Query on the
// collection partition or a GSI when a key can be derived, a Scan otherwise.
type queryPlan struct {
	indexName    *string
	keyCondition string
	filterExpr   string
	names        map[string]string
	values       map[string]types.AttributeValue
}

func (p queryPlan) isScan() bool {
	return p.keyCondition == ""
}

// plan builds the request for filter. The filter expression only narrows
// the candidates; results are always checked with datastore.Match.
func (c *Collection) plan(filter storagemodels.Filter) (queryPlan, error) {
	p := queryPlan{
		names:  map[string]string{"#et": EntityTypeAttribute},
		values: map[string]types.AttributeValue{":et": &types.AttributeValueMemberS{Value: c.name}},
	}
	conditions := []string{"#et = :et"}

	if cfg, pk, ok := routeToIndex(c.indexMap, filter); ok {
		p.indexName = aws.String(cfg.IndexName)
		p.keyCondition = "#pk = :pk"
		p.names["#pk"] = cfg.PartitionKeyName
		p.values[":pk"] = &types.AttributeValueMemberS{Value: pk}
	} else if pk, ok := c.partitionFor(filter); ok {
		p.keyCondition = "#pk = :pk"
		p.names["#pk"] = PartitionKey
		p.values[":pk"] = &types.AttributeValueMemberS{Value: pk}
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, path := range keys {
		value := filter[path]
		switch value.(type) {
		case string, int, int32, int64, float32, float64:
		default:
			continue
		}
		if path == document.PublicIDField {
			path = document.IDField
		}
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return queryPlan{}, fmt.Errorf("failed to marshal filter value for %q: %w", path, err)
		}
		name := p.pathExpression(i, path)
		placeholder := fmt.Sprintf(":f%d", i)
		p.values[placeholder] = av
		conditions = append(conditions, fmt.Sprintf("(%s = %s OR contains(%s, %s))", name, placeholder, name, placeholder))
	}

	p.filterExpr = strings.Join(conditions, " AND ")
	return p, nil
}

// pathExpression registers placeholder names for a dotted path.
func (p queryPlan) pathExpression(i int, path string) string {
	parts := strings.Split(path, ".")
	placeholders := make([]string, len(parts))
	for j, part := range parts {
		placeholder := fmt.Sprintf("#f%d_%d", i, j)
		p.names[placeholder] = part
		placeholders[j] = placeholder
	}
	return strings.Join(placeholders, ".")
}

// partitionFor returns the partition holding every candidate: the static
// partition key, or one expanded from scalar filter values.
func (c *Collection) partitionFor(filter storagemodels.Filter) (string, bool) {
	template := c.indexMap[PartitionKey]
	if !hasMacros(template) {
		return template, true
	}
	expanded, complete, err := expandMacros(map[string]string{PartitionKey: template}, scalarValues(filter))
	if err != nil || !complete {
		return "", false
	}
	return expanded[PartitionKey], true
}

// pages returns the page source for p.
func (c *Collection) pages(p queryPlan, selectCount bool) pageFunc {
	tableName := c.store.tableName
	pageSize := aws.Int32(c.store.pageOptions.PageSize)
	var sel types.Select
	if selectCount {
		sel = types.SelectCount
	}

	if p.isScan() {
		return func(ctx context.Context, startKey map[string]types.AttributeValue) (page, error) {
			out, err := c.store.client.Scan(ctx, &sdk.ScanInput{
				TableName:                 &tableName,
				FilterExpression:          aws.String(p.filterExpr),
				ExpressionAttributeNames:  p.names,
				ExpressionAttributeValues: p.values,
				Limit:                     pageSize,
				ExclusiveStartKey:         startKey,
				Select:                    sel,
			})
			if err != nil {
				return page{}, fmt.Errorf("scan error: %w", err)
			}
			return page{items: out.Items, count: out.Count, lastKey: out.LastEvaluatedKey}, nil
		}
	}

	return func(ctx context.Context, startKey map[string]types.AttributeValue) (page, error) {
		out, err := c.store.client.Query(ctx, &sdk.QueryInput{
			TableName:                 &tableName,
			IndexName:                 p.indexName,
			KeyConditionExpression:    aws.String(p.keyCondition),
			FilterExpression:          aws.String(p.filterExpr),
			ExpressionAttributeNames:  p.names,
			ExpressionAttributeValues: p.values,
			Limit:                     pageSize,
			ExclusiveStartKey:         startKey,
			Select:                    sel,
		})
		if err != nil {
			return page{}, fmt.Errorf("query error: %w", err)
		}
		return page{items: out.Items, count: out.Count, lastKey: out.LastEvaluatedKey}, nil
	}
}

// each visits, in store order, every record matching filter together with
// its raw item, until visit returns false.
func (c *Collection) each(ctx context.Context, filter storagemodels.Filter, visit func(item map[string]types.AttributeValue, r document.Record) bool) error {
	p, err := c.plan(filter)
	if err != nil {
		return err
	}
	return paginate(ctx, c.pages(p, false), c.store.pageOptions, func(pg page) (bool, error) {
		for _, item := range pg.items {
			r, err := c.fromItem(item)
			if err != nil {
				return false, err
			}
			if !datastore.Match(r, filter) {
				continue
			}
			if !visit(item, r) {
				return false, nil
			}
		}
		return true, nil
	})
}

// locate returns the raw item of the record with id, or nil.
func (c *Collection) locate(ctx context.Context, id string) (map[string]types.AttributeValue, error) {
	key, ok, err := c.keyForID(id)
	if err != nil {
		return nil, err
	}
	if ok {
		out, err := withRetry(ctx, c.store.pageOptions, func() (*sdk.GetItemOutput, error) {
			return c.store.client.GetItem(ctx, &sdk.GetItemInput{
				TableName: &c.store.tableName,
				Key:       key,
			})
		})
		if err != nil {
			return nil, fmt.Errorf("GetItem error: %w", err)
		}
		return out.Item, nil
	}

	var found map[string]types.AttributeValue
	err = c.each(ctx, storagemodels.Filter{document.IDField: id}, func(item map[string]types.AttributeValue, _ document.Record) bool {
		found = item
		return false
	})
	return found, err
}

// FindOne executes a by-id or first-match query.
func (c *Collection) FindOne(ctx context.Context, q storagemodels.Query) (document.Record, error) {
	if q.Kind != storagemodels.KindByID {
		q.Options.Limit = 1
		records, err := c.Find(ctx, q)
		if err != nil || len(records) == 0 {
			return nil, err
		}
		return records[0], nil
	}

	item, err := c.locate(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	r, err := c.fromItem(item)
	if err != nil || r == nil {
		return nil, err
	}
	records := []document.Record{r}
	if err := datastore.Populate(ctx, c.name, records, q.Populate, c.store.fetch); err != nil {
		return nil, err
	}
	return records[0], nil
}

// Find executes a multi-result or distinct query. Ordering, distinct and
// paging are evaluated client-side.
func (c *Collection) Find(ctx context.Context, q storagemodels.Query) ([]document.Record, error) {
	if q.Kind == storagemodels.KindByID {
		r, err := c.FindOne(ctx, q)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return []document.Record{}, nil
		}
		return []document.Record{r}, nil
	}

	// Without ordering the first matches are final.
	var stopAfter int64
	if q.Kind != storagemodels.KindDistinct && len(q.Options.Sort) == 0 && q.Options.Limit > 0 {
		stopAfter = q.Options.Skip + q.Options.Limit
	}

	candidates := make([]document.Record, 0)
	err := c.each(ctx, q.Filter, func(_ map[string]types.AttributeValue, r document.Record) bool {
		candidates = append(candidates, r)
		return stopAfter == 0 || int64(len(candidates)) < stopAfter
	})
	if err != nil {
		return nil, err
	}

	records := datastore.Apply(candidates, q)
	if err := datastore.Populate(ctx, c.name, records, q.Populate, c.store.fetch); err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of records matching filter.
func (c *Collection) Count(ctx context.Context, filter storagemodels.Filter) (int64, error) {
	if len(filter) == 0 {
		return c.countAll(ctx)
	}
	var n int64
	err := c.each(ctx, filter, func(map[string]types.AttributeValue, document.Record) bool {
		n++
		return true
	})
	return n, err
}

// countAll counts the collection server-side.
func (c *Collection) countAll(ctx context.Context) (int64, error) {
	p, err := c.plan(nil)
	if err != nil {
		return 0, err
	}
	var n int64
	err = paginate(ctx, c.pages(p, true), c.store.pageOptions, func(pg page) (bool, error) {
		n += int64(pg.count)
		return true, nil
	})
	return n, err
}

// EstimatedCount uses the table item count when the table is dedicated to
// the collection. DynamoDB refreshes it roughly every six hours.
func (c *Collection) EstimatedCount(ctx context.Context) (int64, error) {
	if !c.store.dedicated {
		return c.countAll(ctx)
	}
	out, err := withRetry(ctx, c.store.pageOptions, func() (*sdk.DescribeTableOutput, error) {
		return c.store.client.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: &c.store.tableName})
	})
	if err != nil {
		return 0, fmt.Errorf("DescribeTable error: %w", err)
	}
	if out.Table == nil || out.Table.ItemCount == nil {
		return 0, nil
	}
	return *out.Table.ItemCount, nil
}

// Exists reports whether a record matches filter.
func (c *Collection) Exists(ctx context.Context, filter storagemodels.Filter) (bool, error) {
	found := false
	err := c.each(ctx, filter, func(map[string]types.AttributeValue, document.Record) bool {
		found = true
		return false
	})
	return found, err
}
