/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/errors"
)

// Create stores doc. A missing _id is generated; __v starts at 0.
func (c *Collection) Create(ctx context.Context, doc document.Record) (document.Record, error) {
	r := doc.Clone()
	if r == nil {
		r = document.Record{}
	}
	delete(r, document.PublicIDField)
	if r.ID() == "" {
		r[document.IDField] = uuid.NewString()
	}
	r[document.VersionField] = int64(0)

	item, err := c.toItem(r)
	if err != nil {
		return nil, err
	}

	_, err = withRetry(ctx, c.store.pageOptions, func() (*sdk.PutItemOutput, error) {
		return c.store.client.PutItem(ctx, &sdk.PutItemInput{
			TableName:                &c.store.tableName,
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
			ExpressionAttributeNames: map[string]string{"#pk": PartitionKey},
		})
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, errors.NewAlreadyExistsError(c.name, r.ID())
		}
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}
	return r, nil
}

// UpdateByID replaces the fields of the record at id and returns its
// previous state. The write is conditioned on the version read, so a
// concurrent update surfaces as a ConditionFailedError.
func (c *Collection) UpdateByID(ctx context.Context, id string, doc document.Record) (document.Record, error) {
	current, err := c.locate(ctx, id)
	if err != nil {
		return nil, err
	}
	previous, err := c.fromItem(current)
	if err != nil || previous == nil {
		return nil, err
	}

	next := doc.Clone()
	if next == nil {
		next = document.Record{}
	}
	delete(next, document.PublicIDField)
	next[document.IDField] = previous[document.IDField]
	next[document.VersionField] = previous.Version() + 1

	item, err := c.toItem(next)
	if err != nil {
		return nil, err
	}
	if !reflect.DeepEqual(keyOf(item), keyOf(current)) {
		return nil, errors.NewValidationError("indexMap", fmt.Sprintf("update of %s/%s would move its primary key", c.name, id))
	}

	input := &sdk.PutItemInput{
		TableName:                &c.store.tableName,
		Item:                     item,
		ExpressionAttributeNames: map[string]string{"#v": document.VersionField},
		ReturnValues:             types.ReturnValueAllOld,
	}
	if _, versioned := previous[document.VersionField]; versioned {
		input.ConditionExpression = aws.String("#v = :v")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(previous.Version(), 10)},
		}
	} else {
		input.ConditionExpression = aws.String("attribute_not_exists(#v)")
	}

	out, err := withRetry(ctx, c.store.pageOptions, func() (*sdk.PutItemOutput, error) {
		return c.store.client.PutItem(ctx, input)
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, errors.NewConditionFailedError("update", fmt.Sprintf("%s = %d", document.VersionField, previous.Version()))
		}
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}
	if len(out.Attributes) > 0 {
		return c.fromItem(out.Attributes)
	}
	return previous, nil
}

// DeleteByID removes the record at id and returns its last state.
func (c *Collection) DeleteByID(ctx context.Context, id string) (document.Record, error) {
	key, ok, err := c.keyForID(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		item, err := c.locate(ctx, id)
		if err != nil || item == nil {
			return nil, err
		}
		key = keyOf(item)
	}

	out, err := withRetry(ctx, c.store.pageOptions, func() (*sdk.DeleteItemOutput, error) {
		return c.store.client.DeleteItem(ctx, &sdk.DeleteItemInput{
			TableName:    &c.store.tableName,
			Key:          key,
			ReturnValues: types.ReturnValueAllOld,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return c.fromItem(out.Attributes)
}
