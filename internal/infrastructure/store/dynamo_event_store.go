package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-dispatch/internal/infrastructure/kafka"
	"github.com/google/uuid"
)

// DynamoEventStore stores events in DynamoDB. The table is keyed by
// (aggregate_id, version); the conditional PutItem provides the same
// optimistic locking as the Postgres primary key.
type DynamoEventStore struct {
	client            *dynamodb.Client
	tableName         string
	snapshotTableName string
	producer          *kafka.Producer
}

// dynamoEvent represents the DynamoDB item structure
type dynamoEvent struct {
	AggregateID   string `dynamodbav:"aggregate_id"`
	Version       int    `dynamodbav:"version"`
	ID            string `dynamodbav:"id"`
	AggregateType string `dynamodbav:"aggregate_type"`
	EventType     string `dynamodbav:"event_type"`
	Data          string `dynamodbav:"data"`
	CreatedAt     string `dynamodbav:"created_at"`
	GSI1PK        string `dynamodbav:"gsi1pk"`
}

func NewDynamoEventStore(client *dynamodb.Client, tableName, snapshotTableName string, producer *kafka.Producer) *DynamoEventStore {
	return &DynamoEventStore{
		client:            client,
		tableName:         tableName,
		snapshotTableName: snapshotTableName,
		producer:          producer,
	}
}

// Append stores an event in DynamoDB using a conditional write at
// expectedVersion+1 and publishes it to Kafka.
func (es *DynamoEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any, expectedVersion int) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	eventID := uuid.New().String()
	timestamp := time.Now()

	item := dynamoEvent{
		AggregateID:   aggregateID,
		Version:       expectedVersion + 1,
		ID:            eventID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          string(jsonData),
		CreatedAt:     timestamp.Format(time.RFC3339Nano),
		GSI1PK:        "EVENTS", // Fixed value for GSI1 to enable GetAllEvents
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = es.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(es.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(aggregate_id) AND attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("failed to put event: %w", err)
	}

	event := Event{
		ID:            eventID,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     timestamp,
		Version:       expectedVersion + 1,
	}

	if es.producer != nil {
		if err := es.producer.Publish(ctx, aggregateID, event); err != nil {
			return nil, err
		}
	}

	return &event, nil
}

// GetEvents returns all events for an aggregate, version-ordered
func (es *DynamoEventStore) GetEvents(aggregateID string) []Event {
	return es.queryEvents(context.Background(), aggregateID, 0)
}

// GetEventsFromVersion returns the events appended after fromVersion
func (es *DynamoEventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) []Event {
	return es.queryEvents(ctx, aggregateID, fromVersion)
}

func (es *DynamoEventStore) queryEvents(ctx context.Context, aggregateID string, fromVersion int) []Event {
	result, err := es.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(es.tableName),
		KeyConditionExpression: aws.String("aggregate_id = :aid AND version > :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":aid": &types.AttributeValueMemberS{Value: aggregateID},
			":v":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", fromVersion)},
		},
	})
	if err != nil {
		return nil
	}
	return unmarshalDynamoEvents(result.Items)
}

// GetAllEvents returns all events via the GSI, ordered by creation time
func (es *DynamoEventStore) GetAllEvents() []Event {
	result, err := es.client.Query(context.Background(), &dynamodb.QueryInput{
		TableName:              aws.String(es.tableName),
		IndexName:              aws.String("gsi1"),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "EVENTS"},
		},
	})
	if err != nil {
		return nil
	}
	return unmarshalDynamoEvents(result.Items)
}

// SaveSnapshot stores a snapshot in the dedicated snapshots table
func (es *DynamoEventStore) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	item := map[string]types.AttributeValue{
		"aggregate_id":   &types.AttributeValueMemberS{Value: snapshot.AggregateID},
		"aggregate_type": &types.AttributeValueMemberS{Value: snapshot.AggregateType},
		"version":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", snapshot.Version)},
		"state":          &types.AttributeValueMemberS{Value: string(snapshot.State)},
		"created_at":     &types.AttributeValueMemberS{Value: snapshot.CreatedAt.Format(time.RFC3339Nano)},
	}

	_, err := es.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(es.snapshotTableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves the latest snapshot for an aggregate, nil if none
func (es *DynamoEventStore) GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error) {
	result, err := es.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(es.snapshotTableName),
		Key: map[string]types.AttributeValue{
			"aggregate_id": &types.AttributeValueMemberS{Value: aggregateID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item struct {
		AggregateID   string `dynamodbav:"aggregate_id"`
		AggregateType string `dynamodbav:"aggregate_type"`
		Version       int    `dynamodbav:"version"`
		State         string `dynamodbav:"state"`
		CreatedAt     string `dynamodbav:"created_at"`
	}
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	return &Snapshot{
		AggregateID:   item.AggregateID,
		AggregateType: item.AggregateType,
		Version:       item.Version,
		State:         json.RawMessage(item.State),
		CreatedAt:     createdAt,
	}, nil
}

func unmarshalDynamoEvents(items []map[string]types.AttributeValue) []Event {
	var events []Event
	for _, raw := range items {
		var item dynamoEvent
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		timestamp, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
		events = append(events, Event{
			ID:            item.ID,
			AggregateID:   item.AggregateID,
			AggregateType: item.AggregateType,
			EventType:     item.EventType,
			Data:          json.RawMessage(item.Data),
			Timestamp:     timestamp,
			Version:       item.Version,
		})
	}
	return events
}
