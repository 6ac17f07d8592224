package repository

import (
	"context"
	"errors"
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

// DynamoAPI is the subset of *dynamodb.Client used by the adapters.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
}

const ddbTimeLayout = time.RFC3339Nano

// DynamoProductAdapter stores products keyed by product_id. Queries scan the table and
// run ApplyProductQuery in memory, which is fine for catalogs of modest size.
type DynamoProductAdapter struct {
	client DynamoAPI
	table  string
}

func NewDynamoProductAdapter(client DynamoAPI, table string) *DynamoProductAdapter {
	return &DynamoProductAdapter{client: client, table: table}
}

type ddbProduct struct {
	ProductID      string           `dynamodbav:"product_id"`
	Name           string           `dynamodbav:"name"`
	Status         string           `dynamodbav:"status"`
	Description    *string          `dynamodbav:"description,omitempty"`
	Price          float64          `dynamodbav:"price"`
	Discount       *float64         `dynamodbav:"discount,omitempty"`
	Quantity       int              `dynamodbav:"quantity"`
	Reserved       int              `dynamodbav:"reserved"`
	Images         []string         `dynamodbav:"images"`
	CategoryID     string           `dynamodbav:"category_id"`
	Variants       []models.Variant `dynamodbav:"variants"`
	Specifications *string          `dynamodbav:"specifications,omitempty"`
	CreatedAt      string           `dynamodbav:"created_at"`
	UpdatedAt      string           `dynamodbav:"updated_at"`
}

func toDDBProduct(p *models.Product) ddbProduct {
	return ddbProduct{
		ProductID:      p.ID,
		Name:           p.Name,
		Status:         string(p.Status),
		Description:    p.Description,
		Price:          p.Price,
		Discount:       p.Discount,
		Quantity:       p.Quantity,
		Reserved:       p.Reserved,
		Images:         p.Images,
		CategoryID:     p.CategoryID,
		Variants:       p.Variants,
		Specifications: p.Specifications,
		CreatedAt:      p.CreatedAt.UTC().Format(ddbTimeLayout),
		UpdatedAt:      p.UpdatedAt.UTC().Format(ddbTimeLayout),
	}
}

func (dp ddbProduct) toModel() *models.Product {
	p := &models.Product{
		ID:             dp.ProductID,
		Name:           dp.Name,
		Status:         models.ProductStatus(dp.Status),
		Description:    dp.Description,
		Price:          dp.Price,
		Discount:       dp.Discount,
		Quantity:       dp.Quantity,
		Reserved:       dp.Reserved,
		Images:         dp.Images,
		CategoryID:     dp.CategoryID,
		Variants:       dp.Variants,
		Specifications: dp.Specifications,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if t, err := time.Parse(ddbTimeLayout, dp.CreatedAt); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(ddbTimeLayout, dp.UpdatedAt); err == nil {
		p.UpdatedAt = t
	}
	return p
}

func productKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"product_id": &types.AttributeValueMemberS{Value: id}}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func (d *DynamoProductAdapter) FindByID(ctx context.Context, id string) (*models.Product, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &d.table,
		Key:            productKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return dp.toModel(), nil
}

func (d *DynamoProductAdapter) scanAll(ctx context.Context) ([]*models.Product, error) {
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{TableName: &d.table})
	products := []*models.Product{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan page failed: %w", err)
		}
		for _, it := range page.Items {
			var dp ddbProduct
			if err := attributevalue.UnmarshalMap(it, &dp); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			products = append(products, dp.toModel())
		}
	}
	return products, nil
}

func (d *DynamoProductAdapter) FindByIDs(ctx context.Context, ids []string) ([]*models.Product, error) {
	if len(ids) == 0 {
		return []*models.Product{}, nil
	}
	items, err := batchGetByID(ctx, d.client, d.table, "product_id", ids)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Product, 0, len(items))
	for _, it := range items {
		var dp ddbProduct
		if err := attributevalue.UnmarshalMap(it, &dp); err != nil {
			return nil, fmt.Errorf("unmarshal item: %w", err)
		}
		out = append(out, dp.toModel())
	}
	return out, nil
}

func (d *DynamoProductAdapter) Find(ctx context.Context, q models.ProductQuery) ([]*models.Product, error) {
	all, err := d.scanAll(ctx)
	if err != nil {
		return nil, err
	}
	page, _ := ApplyProductQuery(all, q)
	return page, nil
}

func (d *DynamoProductAdapter) Count(ctx context.Context, q models.ProductQuery) (int64, error) {
	all, err := d.scanAll(ctx)
	if err != nil {
		return 0, err
	}
	q.Limit = 0
	_, total := ApplyProductQuery(all, q)
	return total, nil
}

func (d *DynamoProductAdapter) Create(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(toDDBProduct(product))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &d.table,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(product_id)"),
	})
	if isConditionFailed(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

// Update sets the given attributes. Attribute names go through placeholders since
// several (name, status) are DynamoDB reserved words.
func (d *DynamoProductAdapter) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	expr, names, values, err := buildSetExpression(updates)
	if err != nil {
		return err
	}
	names["#pk"] = "product_id"
	_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &d.table,
		Key:                       productKey(id),
		UpdateExpression:          &expr,
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if isConditionFailed(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update item failed: %w", err)
	}
	return nil
}

// buildSetExpression renders updates plus updated_at as a SET clause in key order.
func buildSetExpression(updates map[string]interface{}) (string, map[string]string, map[string]types.AttributeValue, error) {
	fields := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		fields[k] = v
	}
	fields[FieldUpdatedAt] = time.Now().UTC().Format(ddbTimeLayout)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := make(map[string]string, len(keys))
	values := make(map[string]types.AttributeValue, len(keys))
	parts := make([]string, 0, len(keys))
	for i, k := range keys {
		n, v := fmt.Sprintf("#f%d", i), fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(fields[k])
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshal update value %s: %w", k, err)
		}
		names[n] = k
		values[v] = av
		parts = append(parts, n+" = "+v)
	}
	return "SET " + strings.Join(parts, ", "), names, values, nil
}

func (d *DynamoProductAdapter) Delete(ctx context.Context, id string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &d.table,
		Key:                 productKey(id),
		ConditionExpression: aws.String("attribute_exists(product_id)"),
	})
	if isConditionFailed(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete item failed: %w", err)
	}
	return nil
}

func (d *DynamoProductAdapter) FindIDsByCategory(ctx context.Context, categoryID string) ([]string, error) {
	all, err := d.scanAll(ctx)
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for _, p := range all {
		if p.CategoryID == categoryID {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

// DeleteMany uses BatchWriteItem in chunks of 25, retrying unprocessed items.
func (d *DynamoProductAdapter) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	const chunkSize = 25
	var deleted int64
	for i := 0; i < len(ids); i += chunkSize {
		end := i + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		reqs := make([]types.WriteRequest, 0, end-i)
		for _, id := range ids[i:end] {
			reqs = append(reqs, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: productKey(id)}})
		}
		in := &dynamodb.BatchWriteItemInput{RequestItems: map[string][]types.WriteRequest{d.table: reqs}}
		for attempt := 0; ; attempt++ {
			out, err := d.client.BatchWriteItem(ctx, in)
			if err != nil {
				return deleted, fmt.Errorf("batch delete failed: %w", err)
			}
			unprocessed := out.UnprocessedItems[d.table]
			if len(unprocessed) == 0 {
				break
			}
			if attempt >= 2 {
				return deleted, errors.New("batch delete had unprocessed items after retries")
			}
			in.RequestItems[d.table] = unprocessed
			time.Sleep(time.Duration(attempt+1) * 300 * time.Millisecond)
		}
		deleted += int64(end - i)
	}
	return deleted, nil
}

func (d *DynamoProductAdapter) Reserve(ctx context.Context, id string, quantity int) error {
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &d.table,
		Key:                 productKey(id),
		UpdateExpression:    aws.String("SET #q = #q - :n, #r = if_not_exists(#r, :zero) + :n, #u = :now"),
		ConditionExpression: aws.String("attribute_exists(product_id) AND #st = :instock AND #q >= :n"),
		ExpressionAttributeNames: map[string]string{
			"#st": "status",
			"#q":  "quantity",
			"#r":  "reserved",
			"#u":  "updated_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n":       &types.AttributeValueMemberN{Value: fmt.Sprint(quantity)},
			":zero":    &types.AttributeValueMemberN{Value: "0"},
			":instock": &types.AttributeValueMemberS{Value: string(models.ProductStatusInStock)},
			":now":     &types.AttributeValueMemberS{Value: time.Now().UTC().Format(ddbTimeLayout)},
		},
	})
	if isConditionFailed(err) {
		return ErrInsufficientStock
	}
	if err != nil {
		return fmt.Errorf("reserve failed: %w", err)
	}
	return nil
}

func (d *DynamoProductAdapter) Release(ctx context.Context, id string, quantity int) error {
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &d.table,
		Key:                 productKey(id),
		UpdateExpression:    aws.String("SET #q = #q + :n, #r = #r - :n, #u = :now"),
		ConditionExpression: aws.String("attribute_exists(product_id) AND #r >= :n"),
		ExpressionAttributeNames: map[string]string{
			"#q": "quantity",
			"#r": "reserved",
			"#u": "updated_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n":   &types.AttributeValueMemberN{Value: fmt.Sprint(quantity)},
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(ddbTimeLayout)},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("cannot release %d units of product %s: %w", quantity, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("release failed: %w", err)
	}
	return nil
}

// EnsureIndexes is a no-op; tables are provisioned by infrastructure.
func (d *DynamoProductAdapter) EnsureIndexes(ctx context.Context) error {
	return nil
}
