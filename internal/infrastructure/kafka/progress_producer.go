package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
	"github.com/jvasquez2828/robot-runt-web/internal/messaging"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

// progressProducer mirrors every progress event of a run onto a Kafka topic,
// keyed by run id so one run's events stay on one partition in order.
type progressProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   logger.Logger
}

func NewProgressProducer(brokers []string, topic string, log logger.Logger) (messaging.ProgressPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer failed: %w", err)
	}

	log.Infof(context.Background(), "[Kafka] producer created, brokers: %v, topic: %s", brokers, topic)
	return &progressProducer{
		producer: producer,
		topic:    topic,
		logger:   log,
	}, nil
}

func (p *progressProducer) Publish(ctx context.Context, event domain.ProgressEvent) error {
	message, err := encodeEvent(event)
	if err != nil {
		return err
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.AggregateID().String()),
		Value: sarama.StringEncoder(message),
	}

	partition, offset, err := p.producer.SendMessage(kafkaMsg)
	if err != nil {
		return fmt.Errorf("send %s failed: %w", event.EventType(), err)
	}

	p.logger.Debugf(ctx, "[Kafka] %s sent, partition: %d, offset: %d", event.EventType(), partition, offset)
	return nil
}

func encodeEvent(event domain.ProgressEvent) (string, error) {
	timestamp := event.OccurredOn().Format("2006-01-02T15:04:05Z07:00")
	switch e := event.(type) {
	case domain.BatchResolved:
		return fmt.Sprintf(`{"event_type":"BatchResolved","run_id":"%s","total":%d,"timestamp":"%s"}`,
			e.RunID, e.Total, timestamp), nil
	case domain.RequestCompleted:
		return fmt.Sprintf(`{"event_type":"RequestCompleted","run_id":"%s","plate":%q,"succeeded":%t,"completed":%d,"total":%d,"timestamp":"%s"}`,
			e.RunID, e.Plate, e.Succeeded, e.Completed, e.Total, timestamp), nil
	case domain.RunFailed:
		return fmt.Sprintf(`{"event_type":"RunFailed","run_id":"%s","message":%q,"timestamp":"%s"}`,
			e.RunID, e.Message, timestamp), nil
	case domain.RunCompleted:
		return fmt.Sprintf(`{"event_type":"RunCompleted","run_id":"%s","artifact_ref":%q,"timestamp":"%s"}`,
			e.RunID, e.ArtifactRef, timestamp), nil
	default:
		return "", fmt.Errorf("unknown event type: %T", event)
	}
}

func (p *progressProducer) Close() error {
	p.logger.Infof(context.Background(), "[Kafka] closing producer")
	return p.producer.Close()
}
