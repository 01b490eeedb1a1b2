package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/edgestore"
)

const (
	partitionKey = "graph_id"
	sortKey      = "sk"

	edgePrefix   = "e#"
	weightPrefix = "w#"
)

// DDBClient is the subset of the DynamoDB API used by the edge store.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Static and compile-time check to ensure DynamoDBEdgeStore implements
// edgestore.Store interface.
var _ edgestore.Store = (*DynamoDBEdgeStore)(nil)

// DynamoDBEdgeStore implements an edge store on top of a single DynamoDB
// table. Each graph is a partition; existence rows use "e#<a>#<b>" sort
// keys and weight rows "w#<weight>#<a>#<b>" with an order preserving
// weight encoding so that sort key ranges give the (weight, a, b) order.
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name uresolve-edges \
//	  --attribute-definitions AttributeName=graph_id,AttributeType=S AttributeName=sk,AttributeType=S \
//	  --key-schema AttributeName=graph_id,KeyType=HASH AttributeName=sk,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DynamoDBEdgeStore struct {
	ddb       DDBClient
	tableName string
}

// NewDynamoDBEdgeStore returns an edge store that uses the provided client.
func NewDynamoDBEdgeStore(ddb DDBClient, tableName string) *DynamoDBEdgeStore {
	return &DynamoDBEdgeStore{ddb: ddb, tableName: tableName}
}

// NewDynamoDBEdgeStoreFromEnv builds a DynamoDB client from the default AWS
// configuration chain. A non-empty endpoint overrides the service endpoint,
// which is useful for DynamoDB local.
func NewDynamoDBEdgeStoreFromEnv(ctx context.Context, tableName, endpoint string) (*DynamoDBEdgeStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return NewDynamoDBEdgeStore(client, tableName), nil
}

// InsertIfNotExists records the existence of an edge with a conditional put.
func (s *DynamoDBEdgeStore) InsertIfNotExists(ctx context.Context, edge graph.Edge) (bool, error) {
	_, err := s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                itemKey(edge.GraphID(), edgeSortKey(edge)),
		ConditionExpression: aws.String("attribute_not_exists(" + sortKey + ")"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}

		return false, fmt.Errorf("insert edge %s: %w", edge, err)
	}

	return true, nil
}

// UpsertWeight stores a weight row for an edge.
func (s *DynamoDBEdgeStore) UpsertWeight(ctx context.Context, edge graph.WeightedEdge) error {
	_, err := s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      itemKey(edge.GraphID(), weightSortKey(edge)),
	})
	if err != nil {
		return fmt.Errorf("upsert weight %s: %w", edge.Edge, err)
	}

	return nil
}

// DeleteEdge removes the existence row of an edge.
func (s *DynamoDBEdgeStore) DeleteEdge(ctx context.Context, edge graph.Edge) error {
	_, err := s.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       itemKey(edge.GraphID(), edgeSortKey(edge)),
	})
	if err != nil {
		return fmt.Errorf("delete edge %s: %w", edge, err)
	}

	return nil
}

// DeleteWeight removes a single weight row.
func (s *DynamoDBEdgeStore) DeleteWeight(ctx context.Context, edge graph.WeightedEdge) error {
	_, err := s.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       itemKey(edge.GraphID(), weightSortKey(edge)),
	})
	if err != nil {
		return fmt.Errorf("delete weight %s: %w", edge.Edge, err)
	}

	return nil
}

// RangeQuery returns the weight rows matching q. Result pages are followed
// until the limit is reached or the range is drained.
func (s *DynamoDBEdgeStore) RangeQuery(ctx context.Context, q edgestore.RangeQuery) (edgestore.Iterator, error) {
	lo, hi := sortKeyRange(q)
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String(partitionKey + " = :g AND " + sortKey + " BETWEEN :lo AND :hi"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":g":  &types.AttributeValueMemberS{Value: q.GraphID.String()},
			":lo": &types.AttributeValueMemberS{Value: lo},
			":hi": &types.AttributeValueMemberS{Value: hi},
		},
		ScanIndexForward: aws.Bool(true),
	}

	var rows []graph.WeightedEdge
	for {
		if q.Limit > 0 {
			input.Limit = aws.Int32(int32(q.Limit - len(rows)))
		}

		out, err := s.ddb.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("range query: %w", err)
		}

		for _, item := range out.Items {
			e, err := parseWeightItem(q.GraphID, item)
			if err != nil {
				return nil, fmt.Errorf("range query: %w", err)
			}

			rows = append(rows, e)
		}

		if len(out.LastEvaluatedKey) == 0 || (q.Limit > 0 && len(rows) >= q.Limit) {
			break
		}

		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	return edgestore.NewSliceIterator(rows), nil
}

// sortKeyRange returns inclusive sort key bounds for a range query. Every
// weight row of the From weight sorts after "w#<from>" and every row of the
// To weight sorts after "w#<to>", which makes the upper bound exclusive.
func sortKeyRange(q edgestore.RangeQuery) (string, string) {
	lo := weightPrefix + edgestore.EncodeWeight(q.From)
	if q.After != nil && q.After.Weight >= q.From {
		// The smallest key ordered strictly after the cursor row.
		lo = weightSortKey(*q.After) + "\x00"
	}

	return lo, weightPrefix + edgestore.EncodeWeight(q.To)
}

func itemKey(graphID uuid.UUID, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		partitionKey: &types.AttributeValueMemberS{Value: graphID.String()},
		sortKey:      &types.AttributeValueMemberS{Value: sk},
	}
}

func edgeSortKey(e graph.Edge) string {
	return edgePrefix + e.A.VertexID.String() + "#" + e.B.VertexID.String()
}

func weightSortKey(e graph.WeightedEdge) string {
	return weightPrefix + edgestore.EncodeWeight(e.Weight) + "#" +
		e.A.VertexID.String() + "#" + e.B.VertexID.String()
}

func parseWeightItem(graphID uuid.UUID, item map[string]types.AttributeValue) (graph.WeightedEdge, error) {
	attr, ok := item[sortKey].(*types.AttributeValueMemberS)
	if !ok {
		return graph.WeightedEdge{}, errors.New("weight row without sort key")
	}

	parts := strings.Split(strings.TrimPrefix(attr.Value, weightPrefix), "#")
	if len(parts) != 3 {
		return graph.WeightedEdge{}, fmt.Errorf("malformed weight row %q", attr.Value)
	}

	w, err := edgestore.DecodeWeight(parts[0])
	if err != nil {
		return graph.WeightedEdge{}, err
	}

	a, err := uuid.Parse(parts[1])
	if err != nil {
		return graph.WeightedEdge{}, fmt.Errorf("malformed weight row %q: %w", attr.Value, err)
	}

	b, err := uuid.Parse(parts[2])
	if err != nil {
		return graph.WeightedEdge{}, fmt.Errorf("malformed weight row %q: %w", attr.Value, err)
	}

	return graph.WeightedEdge{
		Edge:   graph.Edge{A: graph.NewVertexKey(graphID, a), B: graph.NewVertexKey(graphID, b)},
		Weight: w,
	}, nil
}
