package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	Topic   = "session-events"
	GroupID = "storefront-cart"

	eventLogout = "logout"
)

// SessionEnder forgets per-user state when a session ends. Implemented by cart.Registry and
// checkout.Sessions.
type SessionEnder interface {
	Logout(ctx context.Context, owner string) error
}

type sessionEvent struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller clears the cart and checkout of every user whose session ended on another service.
type Poller struct {
	enders []SessionEnder
	reader messageReader
	logger *zap.Logger
}

func NewPoller(logger *zap.Logger, brokers []string, enders ...SessionEnder) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    Topic,
		GroupID:  GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{enders: enders, reader: reader, logger: logger}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.poll(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Warn("error closing reader", zap.Error(err))
	}
}

func (p *Poller) poll(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.logger.Warn("error reading message", zap.Error(err))
		}
		return
	}
	if err := p.handle(ctx, m.Value); err != nil {
		p.logger.Warn("session event skipped",
			zap.Int64("offset", m.Offset),
			zap.Error(err))
	}
}

func (p *Poller) handle(ctx context.Context, value []byte) error {
	var ev sessionEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return fmt.Errorf("parse message: %w", err)
	}
	if ev.Type != eventLogout {
		return nil
	}
	if ev.UserID == "" {
		return errors.New("missing user_id")
	}

	var errs []error
	for _, e := range p.enders {
		if err := e.Logout(ctx, ev.UserID); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("end session of %s: %w", ev.UserID, err)
	}
	p.logger.Info("session state cleared after logout", zap.String("owner", ev.UserID))
	return nil
}
