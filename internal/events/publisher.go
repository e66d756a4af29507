// Package events publishes storefront domain events to Kafka. Events
// are fire-and-forget from the request path's point of view: downstream
// consumers (email, fulfillment, analytics pipelines) react to them
// asynchronously.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/raineandseaweb/raineandsea-sub003/pkg/logger"
)

const (
	// TopicOrderPlaced carries one event per successful checkout
	TopicOrderPlaced = "order.placed"
	// TopicStockRestocked carries one event per zero-to-positive stock
	// transition of a product
	TopicStockRestocked = "stock.restocked"
)

// OrderPlacedEvent is the order.placed payload
type OrderPlacedEvent struct {
	EventType   string    `json:"event_type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id,omitempty"`
	Email       string    `json:"email"`
	TotalAmount float64   `json:"total_amount"`
	ItemCount   int       `json:"item_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// StockRestockedEvent is the stock.restocked payload
type StockRestockedEvent struct {
	EventType   string    `json:"event_type"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Stock       int       `json:"stock"`
	// Recipients are the pending notification emails captured at
	// restock time; the mailer consumer fans out to them
	Recipients []string  `json:"recipients,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher emits domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event *OrderPlacedEvent) error
	PublishStockRestocked(ctx context.Context, event *StockRestockedEvent) error
	Close()
}

// KafkaPublisher publishes events through franz-go
type KafkaPublisher struct {
	client *kgo.Client
	log    *logger.Logger
}

// NewKafkaPublisher connects a Kafka producer client
func NewKafkaPublisher(brokers []string, clientID string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RequestRetries(3),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{client: client, log: logger.Get()}, nil
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	record := &kgo.Record{Topic: topic, Key: []byte(key), Value: value}
	// async produce: the request path never waits on broker acks
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.log.Error("event publish failed",
				zap.String("topic", r.Topic),
				zap.Error(err),
			)
		}
	})
	return nil
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, event *OrderPlacedEvent) error {
	event.EventType = TopicOrderPlaced
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return p.publish(ctx, TopicOrderPlaced, event.OrderID, event)
}

func (p *KafkaPublisher) PublishStockRestocked(ctx context.Context, event *StockRestockedEvent) error {
	event.EventType = TopicStockRestocked
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return p.publish(ctx, TopicStockRestocked, event.ProductID, event)
}

// Close flushes buffered records and shuts the client down
func (p *KafkaPublisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.client.Flush(ctx)
	p.client.Close()
}

// NoopPublisher discards events, used when Kafka is disabled
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPlaced(context.Context, *OrderPlacedEvent) error       { return nil }
func (NoopPublisher) PublishStockRestocked(context.Context, *StockRestockedEvent) error { return nil }
func (NoopPublisher) Close()                                                            {}
