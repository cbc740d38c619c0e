package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/mcoot/clubhouse/internal/dependencies/clock"
	"github.com/mcoot/clubhouse/internal/storage/document"
)

// batchGetLimit is the most keys one BatchGetItem request accepts
const batchGetLimit = 100

// API is the subset of the DynamoDB client the bucket uses
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// item is the stored shape of one document
type item struct {
	PK  string `dynamodbav:"pk"`
	Doc string `dynamodbav:"doc"`
	Rev uint64 `dynamodbav:"rev"`
}

// Bucket is a DynamoDB-backed implementation of document.Bucket.
// Every write is a conditional PutItem or DeleteItem on one item.
//
// Revisions are per item. They start from the clock in microseconds so a key
// created again after removal does not repeat the revisions of its earlier life.
type Bucket struct {
	client API
	config Config
	clock  clock.Clock
}

// New creates a bucket over client
func New(client API, config Config, clk clock.Clock) *Bucket {
	config.validate()
	return &Bucket{
		client: client,
		config: config,
		clock:  clk,
	}
}

// revisionAfter returns the revision for a write following prev
func (b *Bucket) revisionAfter(prev uint64) uint64 {
	return max(prev+1, uint64(b.clock.Now().UnixMicro()))
}

// Ensure Bucket implements the interface
var _ document.Bucket = (*Bucket)(nil)

// EnsureTable creates the table if it does not exist and waits until it is active
func (b *Bucket) EnsureTable(ctx context.Context) error {
	_, err := b.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(b.config.Table)})
	if err == nil {
		return nil
	}
	var missing *types.ResourceNotFoundException
	if !errors.As(err, &missing) {
		return classify(err)
	}

	_, err = b.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(b.config.Table),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", b.config.Table, classify(err))
	}

	waiter := dynamodb.NewTableExistsWaiter(b.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(b.config.Table)}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table %s: %w", b.config.Table, classify(err))
	}
	return nil
}

func (b *Bucket) Ping(ctx context.Context) error {
	_, err := b.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(b.config.Table)})
	return classify(err)
}

// Close is a no-op; the SDK client holds no connections that need releasing
func (b *Bucket) Close() error {
	return nil
}

func (b *Bucket) Create(ctx context.Context, key string, doc []byte) (document.Revision, error) {
	rev := b.revisionAfter(0)
	av, err := attributevalue.MarshalMap(item{PK: key, Doc: string(doc), Rev: rev})
	if err != nil {
		return 0, fmt.Errorf("marshal item: %w", err)
	}

	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(b.config.Table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, document.ErrKeyExists
		}
		return 0, classify(err)
	}
	return document.Revision(rev), nil
}

func (b *Bucket) Read(ctx context.Context, key string) ([]byte, document.Revision, error) {
	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.config.Table),
		Key:            keyOf(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, 0, classify(err)
	}
	if out.Item == nil {
		return nil, 0, document.ErrKeyNotFound
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, 0, fmt.Errorf("unmarshal item %s: %w", key, err)
	}
	return []byte(it.Doc), document.Revision(it.Rev), nil
}

func (b *Bucket) Replace(ctx context.Context, key string, doc []byte, expected document.Revision) (document.Revision, error) {
	next := b.revisionAfter(uint64(expected))
	av, err := attributevalue.MarshalMap(item{PK: key, Doc: string(doc), Rev: next})
	if err != nil {
		return 0, fmt.Errorf("marshal item: %w", err)
	}

	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(b.config.Table),
		Item:                av,
		ConditionExpression: aws.String("#rev = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#rev": "rev",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(expected), 10)},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			// the old item comes back only if it exists
			if condErr.Item == nil {
				return 0, document.ErrKeyNotFound
			}
			return 0, document.ErrRevisionMismatch
		}
		return 0, classify(err)
	}
	return document.Revision(next), nil
}

func (b *Bucket) Remove(ctx context.Context, key string, expected document.Revision) error {
	_, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(b.config.Table),
		Key:                 keyOf(key),
		ConditionExpression: aws.String("#rev = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#rev": "rev",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(expected), 10)},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			if condErr.Item == nil {
				return document.ErrKeyNotFound
			}
			return document.ErrRevisionMismatch
		}
		return classify(err)
	}
	return nil
}

func (b *Bucket) Keys(ctx context.Context, prefix string) ([]string, error) {
	paginator := dynamodb.NewScanPaginator(b.client, &dynamodb.ScanInput{
		TableName:            aws.String(b.config.Table),
		FilterExpression:     aws.String("begins_with(pk, :prefix)"),
		ProjectionExpression: aws.String("pk"),
		ConsistentRead:       aws.Bool(true),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		},
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err)
		}
		for _, raw := range page.Items {
			if pk, ok := raw["pk"].(*types.AttributeValueMemberS); ok {
				keys = append(keys, pk.Value)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Bucket) ReadMany(ctx context.Context, keys []string) ([][]byte, error) {
	found := make(map[string][]byte, len(keys))
	for start := 0; start < len(keys); start += batchGetLimit {
		end := min(start+batchGetLimit, len(keys))
		if err := b.batchGet(ctx, keys[start:end], found); err != nil {
			return nil, err
		}
	}

	docs := make([][]byte, len(keys))
	for i, k := range keys {
		docs[i] = found[k]
	}
	return docs, nil
}

func (b *Bucket) batchGet(ctx context.Context, keys []string, found map[string][]byte) error {
	// BatchGetItem rejects duplicate keys
	seen := make(map[string]bool, len(keys))
	requested := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			requested = append(requested, keyOf(k))
		}
	}

	pending := map[string]types.KeysAndAttributes{
		b.config.Table: {Keys: requested, ConsistentRead: aws.Bool(true)},
	}
	for len(pending) > 0 {
		out, err := b.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: pending})
		if err != nil {
			return classify(err)
		}
		for _, raw := range out.Responses[b.config.Table] {
			var it item
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return fmt.Errorf("unmarshal item: %w", err)
			}
			found[it.PK] = []byte(it.Doc)
		}
		pending = out.UnprocessedKeys
	}
	return nil
}

func keyOf(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: key},
	}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", document.ErrUnavailable, err)
}
