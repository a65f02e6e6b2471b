// Package events доставляет доменные события доски внешним подписчикам
package events

import (
	"context"
	"log/slog"

	"github.com/MuellerConstantin/taskcare-service/internal/domain"
)

// Publisher принимает построенное доменное событие для доставки
type Publisher interface {
	Publish(ctx context.Context, ev domain.DomainEvent) error
	Close() error
}

// LogPublisher только журналирует события; используется когда брокер не настроен
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher создает LogPublisher
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "events")}
}

// Publish записывает событие в журнал
func (p *LogPublisher) Publish(ctx context.Context, ev domain.DomainEvent) error {
	p.logger.InfoContext(ctx, "Domain event raised",
		"topic", ev.Topic,
		"kind", string(ev.Kind),
		"board_id", ev.BoardID.String(),
		"raised_at", ev.RaisedAt,
	)
	return nil
}

// Close ничего не делает
func (p *LogPublisher) Close() error {
	return nil
}
