/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"sync"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient is an in-memory table understanding the expressions the
// driver emits. Filter expressions other than the EntityType check are
// ignored, since the driver re-checks every candidate.
type fakeClient struct {
	mu          sync.Mutex
	items       []map[string]types.AttributeValue
	queryErrs   []error
	unprocessed int
	indexUsed   []string
	scans       int
	batchCalls  int
	beforePut   func()
}

var _ Client = (*fakeClient)(nil)

func keyString(item map[string]types.AttributeValue) string {
	return str(item[PartitionKey]) + "|" + str(item[SortKey])
}

func str(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	}
	return ""
}

func (f *fakeClient) find(key map[string]types.AttributeValue) int {
	k := keyString(key)
	for i, item := range f.items {
		if keyString(item) == k {
			return i
		}
	}
	return -1
}

func (f *fakeClient) GetItem(_ context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.find(in.Key); i >= 0 {
		return &sdk.GetItemOutput{Item: f.items[i]}, nil
	}
	return &sdk.GetItemOutput{}, nil
}

func (f *fakeClient) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	if f.beforePut != nil {
		f.beforePut()
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.find(in.Item)
	var existing map[string]types.AttributeValue
	if i >= 0 {
		existing = f.items[i]
	}

	if in.ConditionExpression != nil {
		ok := true
		switch *in.ConditionExpression {
		case "attribute_not_exists(#pk)":
			ok = existing == nil
		case "#v = :v":
			ok = existing != nil && str(existing["__v"]) == str(in.ExpressionAttributeValues[":v"])
		case "attribute_not_exists(#v)":
			ok = existing != nil && existing["__v"] == nil
		}
		if !ok {
			return nil, &types.ConditionalCheckFailedException{Message: in.ConditionExpression}
		}
	}

	if i >= 0 {
		f.items[i] = in.Item
	} else {
		f.items = append(f.items, in.Item)
	}
	out := &sdk.PutItemOutput{}
	if in.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = existing
	}
	return out, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(in.Key)
	if i < 0 {
		return &sdk.DeleteItemOutput{}, nil
	}
	old := f.items[i]
	f.items = append(f.items[:i:i], f.items[i+1:]...)
	return &sdk.DeleteItemOutput{Attributes: old}, nil
}

func (f *fakeClient) selectPage(candidates []map[string]types.AttributeValue, limit *int32, startKey map[string]types.AttributeValue, sel types.Select) ([]map[string]types.AttributeValue, int32, map[string]types.AttributeValue) {
	start := 0
	if len(startKey) > 0 {
		for i, item := range candidates {
			if keyString(item) == keyString(startKey) {
				start = i + 1
				break
			}
		}
	}
	end := len(candidates)
	var lastKey map[string]types.AttributeValue
	if limit != nil && start+int(*limit) < end {
		end = start + int(*limit)
		lastKey = map[string]types.AttributeValue{
			PartitionKey: candidates[end-1][PartitionKey],
			SortKey:      candidates[end-1][SortKey],
		}
	}
	items := candidates[start:end]
	if sel == types.SelectCount {
		return nil, int32(len(items)), lastKey
	}
	return items, int32(len(items)), lastKey
}

func (f *fakeClient) matching(names map[string]string, values map[string]types.AttributeValue, keyCondition bool) []map[string]types.AttributeValue {
	var out []map[string]types.AttributeValue
	for _, item := range f.items {
		if str(item[EntityTypeAttribute]) != str(values[":et"]) {
			continue
		}
		if keyCondition && str(item[names["#pk"]]) != str(values[":pk"]) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (f *fakeClient) Query(_ context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queryErrs) > 0 {
		err := f.queryErrs[0]
		f.queryErrs = f.queryErrs[1:]
		return nil, err
	}
	index := ""
	if in.IndexName != nil {
		index = *in.IndexName
	}
	f.indexUsed = append(f.indexUsed, index)

	items, count, lastKey := f.selectPage(f.matching(in.ExpressionAttributeNames, in.ExpressionAttributeValues, true), in.Limit, in.ExclusiveStartKey, in.Select)
	return &sdk.QueryOutput{Items: items, Count: count, LastEvaluatedKey: lastKey}, nil
}

func (f *fakeClient) Scan(_ context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	items, count, lastKey := f.selectPage(f.matching(in.ExpressionAttributeNames, in.ExpressionAttributeValues, false), in.Limit, in.ExclusiveStartKey, in.Select)
	return &sdk.ScanOutput{Items: items, Count: count, LastEvaluatedKey: lastKey}, nil
}

func (f *fakeClient) BatchGetItem(_ context.Context, in *sdk.BatchGetItemInput, _ ...func(*sdk.Options)) (*sdk.BatchGetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++

	out := &sdk.BatchGetItemOutput{
		Responses:       map[string][]map[string]types.AttributeValue{},
		UnprocessedKeys: map[string]types.KeysAndAttributes{},
	}
	for table, req := range in.RequestItems {
		keys := req.Keys
		if f.unprocessed > 0 && len(keys) > 1 {
			f.unprocessed--
			out.UnprocessedKeys[table] = types.KeysAndAttributes{Keys: keys[1:]}
			keys = keys[:1]
		}
		for _, key := range keys {
			if i := f.find(key); i >= 0 {
				out.Responses[table] = append(out.Responses[table], f.items[i])
			}
		}
	}
	return out, nil
}

func (f *fakeClient) DescribeTable(_ context.Context, _ *sdk.DescribeTableInput, _ ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.items))
	return &sdk.DescribeTableOutput{Table: &types.TableDescription{ItemCount: &n}}, nil
}
