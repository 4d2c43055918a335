package state

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/christophergentle/circalendar/internal/calendar"
)

// DynamoDB allows max 25 items per batch write
const batchSize = 25

// Source loads the observations of a calendar year as one frame per series
type Source interface {
	LoadYear(ctx context.Context, series []string, year int, loc *time.Location) (*calendar.DataSet, error)
}

var (
	_ Source = (*ObservationStore)(nil)
	_ Source = DemoSource{}
)

// Observation is one timestamped value of a series. The table is keyed by
// series (partition) and ts (sort, epoch milliseconds).
type Observation struct {
	Series    string  `json:"series" dynamodbav:"series"`
	Timestamp int64   `json:"ts" dynamodbav:"ts"`
	Value     float64 `json:"value" dynamodbav:"value"`
	TTL       int64   `json:"ttl,omitempty" dynamodbav:"ttl,omitempty"`
}

// Time returns the observation time in UTC
func (o Observation) Time() time.Time {
	return time.UnixMilli(o.Timestamp).UTC()
}

// DynamoDBAPI is the subset of the DynamoDB client used by ObservationStore
type DynamoDBAPI interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// ObservationStore reads and writes observations in a DynamoDB table
type ObservationStore struct {
	client     DynamoDBAPI
	tableName  string
	maxRetries int
	retryDelay time.Duration
}

// NewObservationStore creates a store using the default AWS configuration
func NewObservationStore(ctx context.Context, tableName string) (*ObservationStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewObservationStoreWithClient(dynamodb.NewFromConfig(cfg), tableName), nil
}

// NewObservationStoreWithClient creates a store on an existing client
func NewObservationStoreWithClient(client DynamoDBAPI, tableName string) *ObservationStore {
	return &ObservationStore{
		client:     client,
		tableName:  tableName,
		maxRetries: 5,
		retryDelay: 500 * time.Millisecond,
	}
}

// TableName returns the observation table name
func (s *ObservationStore) TableName() string {
	return s.tableName
}

// Put stores a single observation
func (s *ObservationStore) Put(ctx context.Context, obs Observation) error {
	item, err := attributevalue.MarshalMap(obs)
	if err != nil {
		return fmt.Errorf("failed to marshal observation: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store observation: %w", err)
	}
	return nil
}

// BatchPut stores observations in batches of 25, retrying unprocessed items
func (s *ObservationStore) BatchPut(ctx context.Context, observations []Observation) error {
	totalBatches := (len(observations) + batchSize - 1) / batchSize

	for i := 0; i < len(observations); i += batchSize {
		end := i + batchSize
		if end > len(observations) {
			end = len(observations)
		}
		batchNum := i/batchSize + 1

		requests := make([]types.WriteRequest, 0, end-i)
		for _, obs := range observations[i:end] {
			item, err := attributevalue.MarshalMap(obs)
			if err != nil {
				return fmt.Errorf("failed to marshal observation: %w", err)
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := s.writeBatch(ctx, requests, batchNum, totalBatches); err != nil {
			return err
		}
	}

	log.Printf("Stored %d observations in %s (%d batches)", len(observations), s.tableName, totalBatches)
	return nil
}

func (s *ObservationStore) writeBatch(ctx context.Context, requests []types.WriteRequest, batchNum, totalBatches int) error {
	input := &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			s.tableName: requests,
		},
	}

	for retry := 0; retry < s.maxRetries; retry++ {
		if retry > 0 {
			time.Sleep(time.Duration(retry) * s.retryDelay)
		}

		result, err := s.client.BatchWriteItem(ctx, input)
		if err != nil {
			if retry < s.maxRetries-1 {
				log.Printf("Error detected, retrying (batch %d/%d): %v", batchNum, totalBatches, err)
				continue
			}
			return fmt.Errorf("failed to batch write to table %s (batch %d/%d): %w", s.tableName, batchNum, totalBatches, err)
		}

		unprocessed := result.UnprocessedItems[s.tableName]
		if len(unprocessed) == 0 {
			return nil
		}
		log.Printf("%d items unprocessed, retrying (batch %d/%d)", len(unprocessed), batchNum, totalBatches)
		input.RequestItems = map[string][]types.WriteRequest{s.tableName: unprocessed}
	}

	return fmt.Errorf("failed to batch write to table %s (batch %d/%d): %d items unprocessed after %d retries",
		s.tableName, batchNum, totalBatches, len(input.RequestItems[s.tableName]), s.maxRetries)
}

// QueryRange returns the observations of series in [from, to), oldest first
func (s *ObservationStore) QueryRange(ctx context.Context, series string, from, to time.Time) ([]Observation, error) {
	var observations []Observation
	var lastEvaluatedKey map[string]types.AttributeValue
	pages := 0

	for {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("#series = :series AND #ts BETWEEN :from AND :to"),
			ExpressionAttributeNames: map[string]string{
				"#series": "series",
				"#ts":     "ts",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":series": &types.AttributeValueMemberS{Value: series},
				":from":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", from.UnixMilli())},
				// BETWEEN is inclusive
				":to": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", to.UnixMilli()-1)},
			},
			ExclusiveStartKey: lastEvaluatedKey,
		}

		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query observations for %s: %w", series, err)
		}
		pages++

		for _, item := range result.Items {
			var obs Observation
			if err := attributevalue.UnmarshalMap(item, &obs); err != nil {
				log.Printf("Skipping invalid observation item: %v", err)
				continue
			}
			observations = append(observations, obs)
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		lastEvaluatedKey = result.LastEvaluatedKey
	}

	sort.Slice(observations, func(i, j int) bool {
		return observations[i].Timestamp < observations[j].Timestamp
	})

	log.Printf("Loaded %d observations for %s in %d pages", len(observations), series, pages)
	return observations, nil
}

// LoadYear loads one frame per series covering the calendar year in loc
func (s *ObservationStore) LoadYear(ctx context.Context, series []string, year int, loc *time.Location) (*calendar.DataSet, error) {
	from, to := calendar.YearRange(year, loc)

	frames := make([]calendar.Frame, 0, len(series))
	for _, name := range series {
		observations, err := s.QueryRange(ctx, name, from, to)
		if err != nil {
			return nil, err
		}
		frames = append(frames, ToFrame(name, observations))
	}
	return calendar.NewDataSet(frames...), nil
}

// ToFrame converts observations into a time/value frame named after series
func ToFrame(series string, observations []Observation) *calendar.Table {
	millis := make([]int64, len(observations))
	values := make([]float64, len(observations))
	for i, obs := range observations {
		millis[i] = obs.Timestamp
		values[i] = obs.Value
	}
	return calendar.NewSeriesTable(series, millis, values)
}
