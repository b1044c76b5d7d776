package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	cb "github.com/bookstack-dev/catalog-service/pkg/circuit_breaker"
)

const (
	TypeCreated = "BOOK_CREATED"
	TypeUpdated = "BOOK_UPDATED"
	TypeDeleted = "BOOK_DELETED"
)

// BookEvent is published after every successful catalog mutation.
type BookEvent struct {
	EventID   string    `json:"eventId"`
	Type      string    `json:"type"`
	BookID    int64     `json:"bookId"`
	ISBN      string    `json:"isbn"`
	Timestamp time.Time `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, ev BookEvent) error
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) Publisher {
	const (
		recordLength     = 20
		timeout          = 30 * time.Second
		percentile       = 0.5
		recoveryRequests = 3
	)
	return &kafkaPublisher{
		producer: producer,
		topic:    topic,
		cb:       cb.New(recordLength, timeout, percentile, recoveryRequests),
	}
}

// kafkaPublisher fails fast while the broker is down instead of paying the
// produce timeout on every mutation.
type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	cb       cb.CircuitBreaker
}

func (p *kafkaPublisher) Publish(_ context.Context, ev BookEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.ISBN),
		Value: sarama.StringEncoder(data),
	}
	return p.cb.Call(func() error {
		_, _, err := p.producer.SendMessage(msg)
		return err
	})
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookEvent) error { return nil }
