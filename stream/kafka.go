package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"greenbowl/tracker"
)

// KafkaSource consumes a status feed from a Kafka topic where updates are
// keyed by order id.
type KafkaSource struct {
	name    string
	brokers []string
	topic   string
	groupID string
}

// NewKafkaSource creates a Kafka-backed source. The configured group id gets
// a random suffix so every tracking view reads in its own consumer group and
// sees all partitions; sharing a group would split the topic between views.
func NewKafkaSource(name string, brokers []string, topic, groupID string) *KafkaSource {
	if groupID == "" {
		groupID = "greenbowl"
	}
	groupID += "-" + uuid.New().String()[:8]
	return &KafkaSource{name: name, brokers: brokers, topic: topic, groupID: groupID}
}

func (s *KafkaSource) Name() string { return s.name }

// Run reads messages until ctx is cancelled or the reader fails. Messages
// for other orders are skipped by key.
func (s *KafkaSource) Run(ctx context.Context, orderID string, h Handler) error {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: s.brokers,
		Topic:   s.topic,
		GroupID: s.groupID,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%s feed kafka read: %w", s.name, err)
		}
		if string(msg.Key) != orderID {
			continue
		}
		var u tracker.StatusUpdate
		if err := json.Unmarshal(msg.Value, &u); err != nil {
			log.Printf("%s feed: drop malformed payload at offset %d: %v", s.name, msg.Offset, err)
			continue
		}
		h(u)
	}
}
