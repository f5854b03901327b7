package repository

import (
	"context"

	"MarketHeat/internal/domain/models"
	pkgkafka "MarketHeat/pkg/kafka"
	applogger "MarketHeat/pkg/logger"
)

// KafkaPublisher implements Publisher using the shared Kafka producer.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// SetLogger injects a structured logger.
func (p *KafkaPublisher) SetLogger(l *applogger.Logger) { p.l = l }

// PublishLatest announces the newest classified record. The record date is the
// message key so log-compacted topics retain one record per day.
func (p *KafkaPublisher) PublishLatest(ctx context.Context, rec models.LatestRecord) error {
	err := p.producer.Publish(ctx, p.topic, []byte(rec.Date), rec)
	if err != nil {
		if p.l != nil {
			p.l.Error("kafka publish_latest error",
				applogger.String("topic", p.topic),
				applogger.String("date", rec.Date),
				applogger.Error(err),
			)
		}
		return err
	}
	if p.l != nil {
		p.l.Info("kafka publish_latest ok",
			applogger.String("topic", p.topic),
			applogger.String("date", rec.Date),
		)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
