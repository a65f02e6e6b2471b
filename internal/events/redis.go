package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MuellerConstantin/taskcare-service/internal/domain"
)

// RedisPublisher публикует события в Redis Pub/Sub; канал совпадает с топиком события,
// так что подписчики могут использовать PSUBSCRIBE board.<id>.*
type RedisPublisher struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisPublisher подключается к Redis и проверяет соединение
func NewRedisPublisher(ctx context.Context, addr, password string, db int, prefix string, logger *slog.Logger) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisPublisherFromClient(client, prefix, logger), nil
}

// NewRedisPublisherFromClient оборачивает уже созданный клиент
func NewRedisPublisherFromClient(client *redis.Client, prefix string, logger *slog.Logger) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "events", "transport", "redis"),
	}
}

// Channel возвращает канал Redis для события
func (p *RedisPublisher) Channel(ev domain.DomainEvent) string {
	return p.prefix + ev.Topic
}

// Publish сериализует событие в JSON и публикует его
func (p *RedisPublisher) Publish(ctx context.Context, ev domain.DomainEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", ev.Topic, err)
	}

	channel := p.Channel(ev)
	receivers, err := p.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", channel, err)
	}

	p.logger.DebugContext(ctx, "Domain event published", "channel", channel, "receivers", receivers)
	return nil
}

// Close закрывает соединение с Redis
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
