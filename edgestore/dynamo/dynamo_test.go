package dynamo

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/edgestore"
	"github.com/mycok/uResolve/edgestore/edgestoretest"
)

var _ = check.Suite(new(dynamoEdgeStoreTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

type dynamoEdgeStoreTestSuite struct {
	edgestoretest.BaseSuite
	ddb *fakeDDBClient
}

func (s *dynamoEdgeStoreTestSuite) SetUpTest(c *check.C) {
	// A tiny page size forces the store to follow LastEvaluatedKey.
	s.ddb = newFakeDDBClient(4)
	s.SetStore(NewDynamoDBEdgeStore(s.ddb, "uresolve-edges"))
}

func (s *dynamoEdgeStoreTestSuite) TestStoreErrorsAreWrapped(c *check.C) {
	ctx := context.TODO()
	injected := errors.New("throttled")
	s.ddb.failWith = injected

	store := NewDynamoDBEdgeStore(s.ddb, "uresolve-edges")
	graphID := uuid.New()
	edge := graph.MustEdge(graph.NewVertexKey(graphID, uuid.New()), graph.NewVertexKey(graphID, uuid.New()))

	_, err := store.InsertIfNotExists(ctx, edge)
	c.Assert(errors.Is(err, injected), check.Equals, true)

	err = store.UpsertWeight(ctx, graph.WeightedEdge{Edge: edge, Weight: 0.1})
	c.Assert(errors.Is(err, injected), check.Equals, true)

	_, err = store.RangeQuery(ctx, edgestore.RangeQuery{GraphID: graphID, To: 1})
	c.Assert(errors.Is(err, injected), check.Equals, true)
}

func (s *dynamoEdgeStoreTestSuite) TestSortKeyRange(c *check.C) {
	graphID := uuid.New()
	after := graph.WeightedEdge{
		Edge:   graph.MustEdge(graph.NewVertexKey(graphID, uuid.New()), graph.NewVertexKey(graphID, uuid.New())),
		Weight: 0.2,
	}

	lo, hi := sortKeyRange(edgestore.RangeQuery{GraphID: graphID, From: 0.1, To: 0.3})
	c.Assert(lo, check.Equals, "w#"+edgestore.EncodeWeight(0.1))
	c.Assert(hi, check.Equals, "w#"+edgestore.EncodeWeight(0.3))

	lo, _ = sortKeyRange(edgestore.RangeQuery{GraphID: graphID, From: 0.1, After: &after, To: 0.3})
	c.Assert(lo > weightSortKey(after), check.Equals, true)
}

// fakeDDBClient is an in-memory DynamoDB table that understands the
// expressions issued by DynamoDBEdgeStore.
type fakeDDBClient struct {
	mu       sync.Mutex
	pageSize int
	failWith error
	items    map[string]map[string]map[string]types.AttributeValue // pk -> sk -> item
}

func newFakeDDBClient(pageSize int) *fakeDDBClient {
	return &fakeDDBClient{
		pageSize: pageSize,
		items:    make(map[string]map[string]map[string]types.AttributeValue),
	}
}

func keyOf(item map[string]types.AttributeValue) (string, string) {
	return item[partitionKey].(*types.AttributeValueMemberS).Value,
		item[sortKey].(*types.AttributeValueMemberS).Value
}

func (m *fakeDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}

	pk, sk := keyOf(params.Item)
	partition, exists := m.items[pk]
	if !exists {
		partition = make(map[string]map[string]types.AttributeValue)
		m.items[pk] = partition
	}

	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(sk)" {
		if _, found := partition[sk]; found {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	partition[sk] = params.Item

	return &dynamodb.PutItemOutput{}, nil
}

func (m *fakeDDBClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}

	pk, sk := keyOf(params.Key)
	delete(m.items[pk], sk)

	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *fakeDDBClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}

	pk := params.ExpressionAttributeValues[":g"].(*types.AttributeValueMemberS).Value
	lo := params.ExpressionAttributeValues[":lo"].(*types.AttributeValueMemberS).Value
	hi := params.ExpressionAttributeValues[":hi"].(*types.AttributeValueMemberS).Value

	start := ""
	if params.ExclusiveStartKey != nil {
		_, start = keyOf(params.ExclusiveStartKey)
	}

	var keys []string
	for sk := range m.items[pk] {
		if sk >= lo && sk <= hi && (start == "" || sk > start) {
			keys = append(keys, sk)
		}
	}
	sort.Strings(keys)

	limit := m.pageSize
	if params.Limit != nil && int(*params.Limit) < limit {
		limit = int(*params.Limit)
	}

	out := &dynamodb.QueryOutput{}
	for i, sk := range keys {
		if i == limit {
			out.LastEvaluatedKey = out.Items[len(out.Items)-1]
			break
		}

		out.Items = append(out.Items, m.items[pk][sk])
	}

	return out, nil
}
