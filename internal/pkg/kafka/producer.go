package kafka

import (
	"Inkwell/internal/api/config"
	"context"
	"fmt"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// PostEventPublisher 发布帖子事件
type PostEventPublisher interface {
	Publish(ctx context.Context, event PostEvent) error
	Close() error
}

type producerPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewPostEventPublisher 未配置 broker 时返回空实现
func NewPostEventPublisher(cfg config.KafkaConfig) (PostEventPublisher, error) {
	if len(cfg.Brokers) == 0 {
		log.Info("kafka brokers not configured, post events disabled")
		return NopPublisher{}, nil
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewPublisherWithProducer(producer, cfg.Topic), nil
}

// NewPublisherWithProducer 使用已有的 SyncProducer
func NewPublisherWithProducer(producer sarama.SyncProducer, topic string) PostEventPublisher {
	return &producerPublisher{producer: producer, topic: topic}
}

func (p *producerPublisher) Publish(ctx context.Context, event PostEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		// 同一帖子的事件落在同一分区，保证顺序
		Key:   sarama.StringEncoder(event.PostID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send post event: %w", err)
	}
	log.DebugContext(ctx, "post event sent", "type", event.Type, "post_id", event.PostID, "partition", partition, "offset", offset)
	return nil
}

func (p *producerPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher 丢弃所有事件
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, PostEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
