package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/khoilion/store-be/models"
)

// DynamoCategoryAdapter stores categories keyed by category_id.
type DynamoCategoryAdapter struct {
	client DynamoAPI
	table  string
}

func NewDynamoCategoryAdapter(client DynamoAPI, table string) *DynamoCategoryAdapter {
	return &DynamoCategoryAdapter{client: client, table: table}
}

type ddbCategory struct {
	CategoryID  string  `dynamodbav:"category_id"`
	Name        string  `dynamodbav:"name"`
	Description *string `dynamodbav:"description,omitempty"`
	CreatedAt   string  `dynamodbav:"created_at"`
	UpdatedAt   string  `dynamodbav:"updated_at"`
}

func (dc ddbCategory) toModel() *models.Category {
	c := &models.Category{ID: dc.CategoryID, Name: dc.Name, Description: dc.Description}
	if t, err := time.Parse(ddbTimeLayout, dc.CreatedAt); err == nil {
		c.CreatedAt = t
	}
	if t, err := time.Parse(ddbTimeLayout, dc.UpdatedAt); err == nil {
		c.UpdatedAt = t
	}
	return c
}

func categoryKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"category_id": &types.AttributeValueMemberS{Value: id}}
}

func (d *DynamoCategoryAdapter) FindByID(ctx context.Context, id string) (*models.Category, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: categoryKey(id)})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var dc ddbCategory
	if err := attributevalue.UnmarshalMap(out.Item, &dc); err != nil {
		return nil, fmt.Errorf("unmarshal category: %w", err)
	}
	return dc.toModel(), nil
}

// FindAll returns categories newest first.
func (d *DynamoCategoryAdapter) FindAll(ctx context.Context) ([]*models.Category, error) {
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{TableName: &d.table})
	categories := []*models.Category{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan categories failed: %w", err)
		}
		for _, it := range page.Items {
			var dc ddbCategory
			if err := attributevalue.UnmarshalMap(it, &dc); err != nil {
				return nil, fmt.Errorf("unmarshal category: %w", err)
			}
			categories = append(categories, dc.toModel())
		}
	}
	sort.SliceStable(categories, func(i, j int) bool {
		a, b := categories[i], categories[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return categories, nil
}

func (d *DynamoCategoryAdapter) FindByIDs(ctx context.Context, ids []string) ([]*models.Category, error) {
	if len(ids) == 0 {
		return []*models.Category{}, nil
	}
	items, err := batchGetByID(ctx, d.client, d.table, "category_id", ids)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Category, 0, len(items))
	for _, it := range items {
		var dc ddbCategory
		if err := attributevalue.UnmarshalMap(it, &dc); err != nil {
			return nil, fmt.Errorf("unmarshal category: %w", err)
		}
		out = append(out, dc.toModel())
	}
	return out, nil
}

// FindByName matches case-insensitively, like the unique index on the Mongo side.
func (d *DynamoCategoryAdapter) FindByName(ctx context.Context, name string) (*models.Category, error) {
	all, err := d.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range all {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (d *DynamoCategoryAdapter) Create(ctx context.Context, category *models.Category) error {
	item, err := attributevalue.MarshalMap(ddbCategory{
		CategoryID:  category.ID,
		Name:        category.Name,
		Description: category.Description,
		CreatedAt:   category.CreatedAt.UTC().Format(ddbTimeLayout),
		UpdatedAt:   category.UpdatedAt.UTC().Format(ddbTimeLayout),
	})
	if err != nil {
		return fmt.Errorf("marshal category: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &d.table,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(category_id)"),
	})
	if isConditionFailed(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (d *DynamoCategoryAdapter) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	expr, names, values, err := buildSetExpression(updates)
	if err != nil {
		return err
	}
	names["#pk"] = "category_id"
	_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &d.table,
		Key:                       categoryKey(id),
		UpdateExpression:          &expr,
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if isConditionFailed(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update category failed: %w", err)
	}
	return nil
}

func (d *DynamoCategoryAdapter) Delete(ctx context.Context, id string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &d.table,
		Key:                 categoryKey(id),
		ConditionExpression: aws.String("attribute_exists(category_id)"),
	})
	if isConditionFailed(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete category failed: %w", err)
	}
	return nil
}

func (d *DynamoCategoryAdapter) EnsureIndexes(ctx context.Context) error {
	return nil
}
