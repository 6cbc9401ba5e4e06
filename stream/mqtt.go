package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"greenbowl/tracker"
)

// MQTTSource consumes a status feed from an MQTT broker, for deployments
// where a service publishes per-order status topics instead of SSE.
type MQTTSource struct {
	name        string
	broker      string
	port        int
	clientID    string
	topicPrefix string // subscribed topic is "<prefix>/<orderID>"
}

// NewMQTTSource creates an MQTT-backed source. The client id always gets a
// random suffix; brokers disconnect the older session when two clients share
// an id, so a configured id must still be unique per source.
func NewMQTTSource(name, broker string, port int, clientID, topicPrefix string) *MQTTSource {
	if clientID == "" {
		clientID = "greenbowl"
	}
	clientID += "-" + uuid.New().String()[:8]
	return &MQTTSource{
		name:        name,
		broker:      broker,
		port:        port,
		clientID:    clientID,
		topicPrefix: topicPrefix,
	}
}

func (s *MQTTSource) Name() string { return s.name }

// Run connects, subscribes to the order's topic, and blocks until the
// connection drops or ctx is cancelled. Reconnection is owned by the
// Listener, so auto-reconnect stays off here.
func (s *MQTTSource) Run(ctx context.Context, orderID string, h Handler) error {
	lost := make(chan error, 1)

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", s.broker, s.port)).
		SetClientID(s.clientID).
		SetAutoReconnect(false).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			select {
			case lost <- err:
			default:
			}
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("%s feed mqtt connect: %w", s.name, err)
	}
	defer client.Disconnect(250)

	topic := s.topicPrefix + "/" + orderID
	sub := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		var u tracker.StatusUpdate
		if err := json.Unmarshal(msg.Payload(), &u); err != nil {
			log.Printf("%s feed: drop malformed payload on %s: %v", s.name, msg.Topic(), err)
			return
		}
		h(u)
	})
	sub.Wait()
	if err := sub.Error(); err != nil {
		return fmt.Errorf("%s feed mqtt subscribe %s: %w", s.name, topic, err)
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-lost:
		return fmt.Errorf("%s feed mqtt connection lost: %w", s.name, err)
	}
}
