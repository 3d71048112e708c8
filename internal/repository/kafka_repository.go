package repository

import (
	"context"

	"TradeSage/internal/domain/models"
	"TradeSage/internal/domain/repository"
	pkgkafka "TradeSage/pkg/kafka"
)

// KafkaTickPublisher implements TickPublisher for Kafka.
type KafkaTickPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaTickPublisher creates a Kafka tick publisher.
func NewKafkaTickPublisher(producer *pkgkafka.Producer, topic string) repository.TickPublisher {
	return &KafkaTickPublisher{producer: producer, topic: topic}
}

func (p *KafkaTickPublisher) Publish(ctx context.Context, t *models.Tick) error {
	return p.producer.Publish(ctx, p.topic, []byte(t.Symbol), tickPayload(t))
}

func (p *KafkaTickPublisher) PublishBatch(ctx context.Context, ticks []*models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(ticks))
	for i, t := range ticks {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(t.Symbol),
			Value: tickPayload(t),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaTickPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func tickPayload(t *models.Tick) map[string]interface{} {
	return map[string]interface{}{
		"symbol": t.Symbol,
		"t":      t.Timestamp,
		"c":      t.Price,
		"v":      t.Volume,
	}
}

// KafkaNotifier implements Notifier over a Kafka signals topic. Consumers
// (alert bots, dashboards) subscribe downstream.
type KafkaNotifier struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaNotifier creates a Kafka-backed signal notifier.
func NewKafkaNotifier(producer *pkgkafka.Producer, topic string) repository.Notifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) Notify(ctx context.Context, sig *models.TradeSignal) error {
	return n.producer.Publish(ctx, n.topic, []byte(sig.Symbol), map[string]interface{}{
		"symbol":           sig.Symbol,
		"action":           string(sig.Action),
		"confidence":       sig.Confidence,
		"predicted_price":  sig.PredictedPrice,
		"last_price":       sig.LastPrice,
		"fibonacci_levels": sig.Fib,
		"trend":            sig.Trend,
		"arbitrage_signal": sig.Arbitrage,
		"pattern":          sig.Pattern,
	})
}

func (n *KafkaNotifier) Close() error {
	if n.producer != nil {
		return n.producer.Close()
	}
	return nil
}
