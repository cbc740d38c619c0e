package dynamo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/clubhouse/internal/dependencies/clock"
	"github.com/mcoot/clubhouse/internal/dependencies/mocks"
	"github.com/mcoot/clubhouse/internal/storage"
	"github.com/mcoot/clubhouse/internal/storage/document"
	"github.com/mcoot/clubhouse/internal/storage/storagetest"
)

// fakeAPI is an in-memory table understanding the condition expressions the bucket sends
type fakeAPI struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	tables   map[string]bool
	pageSize int
	batchMax int
	down     bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		items:    make(map[string]map[string]types.AttributeValue),
		tables:   make(map[string]bool),
		pageSize: 2,
		batchMax: 2,
	}
}

var errUnreachable = errors.New("dial tcp: connection refused")

func pkOf(av map[string]types.AttributeValue) string {
	return av["pk"].(*types.AttributeValueMemberS).Value
}

func revOf(av map[string]types.AttributeValue) string {
	if n, ok := av["rev"].(*types.AttributeValueMemberN); ok {
		return n.Value
	}
	return ""
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errUnreachable
	}
	return &dynamodb.GetItemOutput{Item: f.items[pkOf(in.Key)]}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errUnreachable
	}
	pk := pkOf(in.Item)
	existing, exists := f.items[pk]

	switch aws.ToString(in.ConditionExpression) {
	case "attribute_not_exists(pk)":
		if exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	case "#rev = :expected":
		expected := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value
		if !exists || revOf(existing) != expected {
			failed := &types.ConditionalCheckFailedException{Message: aws.String("rev")}
			if exists && in.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld {
				failed.Item = existing
			}
			return nil, failed
		}
	}
	f.items[pk] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errUnreachable
	}
	pk := pkOf(in.Key)
	existing, ok := f.items[pk]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	}
	if aws.ToString(in.ConditionExpression) == "#rev = :expected" {
		expected := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value
		if revOf(existing) != expected {
			failed := &types.ConditionalCheckFailedException{Message: aws.String("rev")}
			if in.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld {
				failed.Item = existing
			}
			return nil, failed
		}
	}
	delete(f.items, pk)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeAPI) BatchGetItem(_ context.Context, in *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errUnreachable
	}
	out := &dynamodb.BatchGetItemOutput{
		Responses:       make(map[string][]map[string]types.AttributeValue),
		UnprocessedKeys: make(map[string]types.KeysAndAttributes),
	}
	for table, req := range in.RequestItems {
		for i, key := range req.Keys {
			// leave some keys unprocessed so callers must loop
			if i >= f.batchMax {
				rest := req
				rest.Keys = req.Keys[i:]
				out.UnprocessedKeys[table] = rest
				break
			}
			if it, ok := f.items[pkOf(key)]; ok {
				out.Responses[table] = append(out.Responses[table], it)
			}
		}
	}
	return out, nil
}

func (f *fakeAPI) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errUnreachable
	}
	prefix := in.ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS).Value

	all := make([]string, 0, len(f.items))
	for pk := range f.items {
		all = append(all, pk)
	}
	sort.Strings(all)

	start := 0
	if in.ExclusiveStartKey != nil {
		after := pkOf(in.ExclusiveStartKey)
		start = sort.SearchStrings(all, after) + 1
	}
	end := min(start+f.pageSize, len(all))

	out := &dynamodb.ScanOutput{}
	for _, pk := range all[start:end] {
		if strings.HasPrefix(pk, prefix) {
			out.Items = append(out.Items, map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: pk}})
		}
	}
	if end < len(all) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: all[end-1]}}
	}
	return out, nil
}

func (f *fakeAPI) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errUnreachable
	}
	if !f.tables[aws.ToString(in.TableName)] {
		return nil, &types.ResourceNotFoundException{Message: aws.String("no table")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeAPI) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[aws.ToString(in.TableName)] = true
	return &dynamodb.CreateTableOutput{}, nil
}

type BucketSuite struct {
	suite.Suite
	api    *fakeAPI
	clock  *mocks.MockClock
	bucket *Bucket
	ctx    context.Context
}

func TestBucketSuite(t *testing.T) {
	suite.Run(t, new(BucketSuite))
}

func (s *BucketSuite) SetupTest() {
	s.api = newFakeAPI()
	s.clock = mocks.NewMockClock(storagetest.Epoch)
	s.bucket = New(s.api, DefaultConfig(), s.clock)
	s.ctx = context.Background()
}

func (s *BucketSuite) TestEnsureTableCreatesOnce() {
	s.Require().ErrorIs(s.bucket.Ping(s.ctx), document.ErrUnavailable)

	s.Require().NoError(s.bucket.EnsureTable(s.ctx))
	s.True(s.api.tables["clubhouse_documents"])
	s.Require().NoError(s.bucket.EnsureTable(s.ctx))
	s.NoError(s.bucket.Ping(s.ctx))
}

func (s *BucketSuite) TestEmptyTableNameDefaults() {
	b := New(s.api, Config{}, s.clock)
	s.Equal("clubhouse_documents", b.config.Table)
}

func (s *BucketSuite) TestCreateReadReplace() {
	rev, err := s.bucket.Create(s.ctx, "app::club::1", []byte(`{"v":1}`))
	s.Require().NoError(err)
	s.Equal(document.Revision(storagetest.Epoch.UnixMicro()), rev)

	_, err = s.bucket.Create(s.ctx, "app::club::1", []byte(`{"v":2}`))
	s.ErrorIs(err, document.ErrKeyExists)

	// a stopped clock still yields a greater revision
	next, err := s.bucket.Replace(s.ctx, "app::club::1", []byte(`{"v":3}`), rev)
	s.Require().NoError(err)
	s.Equal(rev+1, next)

	doc, got, err := s.bucket.Read(s.ctx, "app::club::1")
	s.Require().NoError(err)
	s.Equal(`{"v":3}`, string(doc))
	s.Equal(next, got)
}

func (s *BucketSuite) TestReplaceDistinguishesMissingFromStale() {
	_, err := s.bucket.Replace(s.ctx, "missing", []byte("x"), 1)
	s.ErrorIs(err, document.ErrKeyNotFound)

	rev, err := s.bucket.Create(s.ctx, "k", []byte("1"))
	s.Require().NoError(err)
	_, err = s.bucket.Replace(s.ctx, "k", []byte("2"), rev)
	s.Require().NoError(err)

	_, err = s.bucket.Replace(s.ctx, "k", []byte("3"), rev)
	s.ErrorIs(err, document.ErrRevisionMismatch)
}

func (s *BucketSuite) TestRemove() {
	rev, err := s.bucket.Create(s.ctx, "k", []byte("1"))
	s.Require().NoError(err)
	s.Require().NoError(s.bucket.Remove(s.ctx, "k", rev))
	s.ErrorIs(s.bucket.Remove(s.ctx, "k", rev), document.ErrKeyNotFound)

	_, _, err = s.bucket.Read(s.ctx, "k")
	s.ErrorIs(err, document.ErrKeyNotFound)
}

func (s *BucketSuite) TestRemoveRejectsStaleRevision() {
	rev, err := s.bucket.Create(s.ctx, "k", []byte("1"))
	s.Require().NoError(err)
	next, err := s.bucket.Replace(s.ctx, "k", []byte("2"), rev)
	s.Require().NoError(err)

	s.ErrorIs(s.bucket.Remove(s.ctx, "k", rev), document.ErrRevisionMismatch)
	doc, _, err := s.bucket.Read(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal("2", string(doc))

	s.NoError(s.bucket.Remove(s.ctx, "k", next))
}

func (s *BucketSuite) TestRecreatedKeyDoesNotRepeatRevisions() {
	first, err := s.bucket.Create(s.ctx, "app::user::1", []byte("old"))
	s.Require().NoError(err)
	s.Require().NoError(s.bucket.Remove(s.ctx, "app::user::1", first))

	s.clock.Advance(time.Second)
	second, err := s.bucket.Create(s.ctx, "app::user::1", []byte("new"))
	s.Require().NoError(err)
	s.Greater(second, first)

	_, err = s.bucket.Replace(s.ctx, "app::user::1", []byte("stale"), first)
	s.ErrorIs(err, document.ErrRevisionMismatch)
}

func (s *BucketSuite) TestKeysPaginates() {
	for _, k := range []string{"a::1", "b::1", "a::2", "a::3", "b::2"} {
		_, err := s.bucket.Create(s.ctx, k, []byte(k))
		s.Require().NoError(err)
	}

	keys, err := s.bucket.Keys(s.ctx, "a::")
	s.Require().NoError(err)
	s.Equal([]string{"a::1", "a::2", "a::3"}, keys)
}

func (s *BucketSuite) TestReadManyFollowsUnprocessedKeys() {
	for _, k := range []string{"k1", "k2", "k3", "k4", "k5"} {
		_, err := s.bucket.Create(s.ctx, k, []byte("doc-"+k))
		s.Require().NoError(err)
	}

	docs, err := s.bucket.ReadMany(s.ctx, []string{"k5", "k1", "gone", "k3", "k2", "k4", "k1"})
	s.Require().NoError(err)
	s.Equal("doc-k5", string(docs[0]))
	s.Equal("doc-k1", string(docs[1]))
	s.Nil(docs[2])
	s.Equal("doc-k4", string(docs[5]))
	s.Equal("doc-k1", string(docs[6]))
}

func (s *BucketSuite) TestUnreachable() {
	s.api.down = true
	_, _, err := s.bucket.Read(s.ctx, "k")
	s.ErrorIs(err, document.ErrUnavailable)
	s.ErrorIs(err, errUnreachable)
}

func TestContractOverDynamo(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T, clk clock.Clock) storage.Storage {
			bucket := New(newFakeAPI(), DefaultConfig(), clk)
			require.NoError(t, bucket.EnsureTable(context.Background()))
			return document.New(bucket, "clubhouse", clk)
		},
	})
}
