package stream

import (
	"strings"
	"testing"
)

func TestKafkaSourceGroupIDUniquePerView(t *testing.T) {
	a := NewKafkaSource("order", []string{"localhost:9092"}, "order-status", "greenbowl-views")
	b := NewKafkaSource("order", []string{"localhost:9092"}, "order-status", "greenbowl-views")

	if a.groupID == b.groupID {
		t.Fatalf("two sources share consumer group %q; each view must get its own", a.groupID)
	}
	if !strings.HasPrefix(a.groupID, "greenbowl-views-") {
		t.Errorf("group id = %q, want configured prefix kept", a.groupID)
	}
}

func TestKafkaSourceGroupIDDefaultsNonEmpty(t *testing.T) {
	s := NewKafkaSource("order", nil, "order-status", "")
	if s.groupID == "" {
		t.Fatal("empty group id reads partition 0 only; a group must always be set")
	}
}

func TestMQTTSourceClientIDUniquePerSource(t *testing.T) {
	a := NewMQTTSource("order", "localhost", 1883, "greenbowl-app", "orders/status")
	b := NewMQTTSource("delivery", "localhost", 1883, "greenbowl-app", "delivery/status")

	if a.clientID == b.clientID {
		t.Fatalf("two sources share mqtt client id %q; the broker would drop one session", a.clientID)
	}
	if !strings.HasPrefix(a.clientID, "greenbowl-app-") {
		t.Errorf("client id = %q, want configured prefix kept", a.clientID)
	}
}
