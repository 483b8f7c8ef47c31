// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package notifier publishes committed backend changes to Kafka

Every message is keyed with "<resource>/<id>", so all changes of one resource
land in the same partition and keep their order.
*/
package notifier

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/relabs-tech/fanpages/core"
	"github.com/relabs-tech/fanpages/core/logger"
)

// DefaultTopic is used when no topic is configured
const DefaultTopic = "fan_page_notification"

// Message is the value of a published kafka message
type Message struct {
	Resource   string          `json:"resource"`
	Operation  core.Operation  `json:"operation"`
	ResourceID int64           `json:"resource_id"`
	RequestID  string          `json:"request_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Payload    json.RawMessage `json:"payload"`
}

// messageWriter is implemented by *kafka.Writer
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka is a core.Notifier writing to a kafka topic
type Kafka struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

var _ core.Notifier = (*Kafka)(nil)

// NewKafka returns a notifier for the given brokers and topic. An empty topic
// selects DefaultTopic. Nothing is dialed before the first notification.
func NewKafka(brokers []string, topic string) *Kafka {
	if topic == "" {
		topic = DefaultTopic
	}
	logger.Default().Infoln("kafka notifications to topic", topic, "on", brokers)
	return newKafka(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}, topic)
}

func newKafka(writer messageWriter, topic string) *Kafka {
	return &Kafka{
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

// Topic returns the topic the notifier writes to
func (k *Kafka) Topic() string {
	return k.topic
}

// Notify implements core.Notifier
func (k *Kafka) Notify(ctx context.Context, resource string, operation core.Operation, resourceID int64, payload []byte) error {
	value, err := json.Marshal(Message{
		Resource:   resource,
		Operation:  operation,
		ResourceID: resourceID,
		RequestID:  logger.RequestIDFromContext(ctx),
		CreatedAt:  k.now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("cannot marshal notification: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(resource + "/" + strconv.FormatInt(resourceID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "operation", Value: []byte(operation)},
		},
	})
	if err != nil {
		return fmt.Errorf("cannot write to topic %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer
func (k *Kafka) Close() error {
	return k.writer.Close()
}
