package rabbitmq

import (
	"context"
	"strings"
	"testing"

	"driver-link/internal/general/config"
)

func TestAMQPURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.RabbitMQ.Host = "mq.local"
	cfg.RabbitMQ.Port = 5672
	cfg.RabbitMQ.User = "driver"
	cfg.RabbitMQ.Password = "p@ss"

	got := AMQPURL(cfg)
	if !strings.HasPrefix(got, "amqp://driver:") || !strings.HasSuffix(got, "@mq.local:5672/") {
		t.Fatalf("unexpected url %q", got)
	}
	if strings.Contains(got, "p@ss@") {
		t.Fatalf("password not escaped: %q", got)
	}
}

func TestNopPublisher(t *testing.T) {
	if err := (Nop{}).Publish(context.Background(), "driver.status.ONLINE", map[string]string{"a": "b"}); err != nil {
		t.Fatalf("nop publish: %v", err)
	}
}

func TestJournalRejectsUnencodableEvent(t *testing.T) {
	j := NewJournal(&Client{})
	err := j.Publish(context.Background(), "driver.trip.STARTED", make(chan int))
	if err == nil || !strings.Contains(err.Error(), "encode event") {
		t.Fatalf("expected encode error, got %v", err)
	}
}
