package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// batchGetLimit is the most keys a single BatchGetItem call accepts.
const batchGetLimit = 100

// batchGetByID loads the items whose string key attribute keyName is one of ids.
// Duplicate ids are fetched once, missing ids are skipped, and unprocessed keys are
// retried with a short backoff.
func batchGetByID(ctx context.Context, client DynamoAPI, table, keyName string, ids []string) ([]map[string]types.AttributeValue, error) {
	seen := make(map[string]struct{}, len(ids))
	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, map[string]types.AttributeValue{keyName: &types.AttributeValueMemberS{Value: id}})
	}

	items := make([]map[string]types.AttributeValue, 0, len(keys))
	for i := 0; i < len(keys); i += batchGetLimit {
		end := i + batchGetLimit
		if end > len(keys) {
			end = len(keys)
		}
		pending := map[string]types.KeysAndAttributes{table: {Keys: keys[i:end]}}
		for attempt := 0; ; attempt++ {
			out, err := client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: pending})
			if err != nil {
				return nil, fmt.Errorf("batch get failed: %w", err)
			}
			items = append(items, out.Responses[table]...)
			unprocessed, ok := out.UnprocessedKeys[table]
			if !ok || len(unprocessed.Keys) == 0 {
				break
			}
			if attempt >= 2 {
				return nil, errors.New("batch get had unprocessed keys after retries")
			}
			pending = map[string]types.KeysAndAttributes{table: unprocessed}
			time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
		}
	}
	return items, nil
}
