// Package events публикует события входа и выхода пользователей в NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SessionKind - тип события сессии
type SessionKind string

const (
	SessionSignedIn  SessionKind = "signed_in"
	SessionSignedOut SessionKind = "signed_out"
)

// SessionEvent - смена сессии пользователя
type SessionEvent struct {
	Kind   SessionKind `json:"kind"`
	UserID uuid.UUID   `json:"user_id"`
	Method string      `json:"method,omitempty"` // password | telegram
	At     time.Time   `json:"at"`
}

// Publisher отправляет события сессий
type Publisher interface {
	PublishSession(ctx context.Context, ev SessionEvent) error
	Close()
}

// NATSPublisher публикует события в subject NATS
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	log     *zap.Logger
}

// NewNATSPublisher подключается к NATS
func NewNATSPublisher(url, subject string, log *zap.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("puzzleswap-api"),
		nats.Timeout(10 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS отключён", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS переподключён", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к NATS %s: %w", url, err)
	}
	log.Info("Подключено к NATS", zap.String("url", conn.ConnectedUrl()), zap.String("subject", subject))

	return &NATSPublisher{conn: conn, subject: subject, log: log.Named("nats")}, nil
}

func (p *NATSPublisher) PublishSession(ctx context.Context, ev SessionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("ошибка сериализации события: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("ошибка публикации в %s: %w", p.subject, err)
	}
	p.log.Debug("Событие сессии опубликовано", zap.String("kind", string(ev.Kind)), zap.Stringer("user_id", ev.UserID))
	return nil
}

// Close дожидается отправки буфера и закрывает соединение
func (p *NATSPublisher) Close() {
	if p.conn == nil || p.conn.IsClosed() {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.log.Error("Ошибка при закрытии NATS", zap.Error(err))
	}
}

// NopPublisher используется, когда NATS не настроен
type NopPublisher struct{}

func (NopPublisher) PublishSession(context.Context, SessionEvent) error {
	return nil
}

func (NopPublisher) Close() {}
