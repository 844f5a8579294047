package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"mindwell/internal/platform/config"
)

// Producer publishes account lifecycle events. Publishing is best-effort:
// a nil Producer (Kafka not configured) and a broker failure are both
// silently tolerated so the primary workflow never blocks on the broker.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(cfg config.Config) *Producer {
	if cfg.KafkaBroker == "" {
		return nil
	}

	transport := &kafka.Transport{}
	if cfg.KafkaUser != "" {
		transport.SASL = plain.Mechanism{Username: cfg.KafkaUser, Password: cfg.KafkaPassword}
		transport.TLS = &tls.Config{}
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBroker),
			Topic:        cfg.KafkaTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Transport:    transport,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (p *Producer) Publish(userID, eventType string, payload map[string]any) {
	if p == nil || p.writer == nil {
		return
	}

	body := map[string]any{
		"type":       eventType,
		"userId":     userID,
		"occurredAt": time.Now().UTC(),
	}
	for key, value := range payload {
		body[key] = value
	}

	value, err := json.Marshal(body)
	if err != nil {
		slog.Warn("event marshal failed", "type", eventType, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(userID),
		Value: value,
		Time:  time.Now(),
	}); err != nil {
		slog.Warn("event publish failed", "type", eventType, "err", err)
	}
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
