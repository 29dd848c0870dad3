package repository

import (
	"context"

	"AstroCarto/internal/domain/models"
	domrepo "AstroCarto/internal/domain/repository"
	pkgkafka "AstroCarto/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Downstream consumers
// receive a compact summary per completed computation, keyed by the
// request fingerprint so repeated requests compact to one record.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka-backed result publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishResult(ctx context.Context, res *models.CalculationResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(res.Fingerprint), map[string]interface{}{
		"fingerprint": res.Fingerprint,
		"jd":          res.JD,
		"bodies":      bodySet(res),
		"features":    len(res.Features),
		"parans":      len(res.Parans),
		"warnings":    len(res.Warnings),
		"partial":     res.Partial,
		"duration_ms": res.DurationMS,
		"computed_at": res.ComputedAt,
	})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
