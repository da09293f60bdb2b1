package poller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ActiveRegister is the slice of the register the poller needs: enough to
// recognize its own terminal and clear the finalized sale.
type ActiveRegister interface {
	ID() string
	Clear(ctx context.Context) error
}

// Poller consumes sale-finalized events and clears the register's cart
// when a checkout completed for this terminal. This drives the terminal
// part of the cart lifecycle: a finalized sale empties the cart.
type Poller struct {
	reg    ActiveRegister
	reader *kafka.Reader
	log    *zap.Logger
}

func NewPoller(reg ActiveRegister, log *zap.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "checkout-completed",
		GroupID:  "register-service-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{reg: reg, reader: reader, log: log}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.log.Warn("error reading message", zap.Error(err))
			}
			continue
		}
		if err := p.handleMessage(ctx, m.Value); err != nil {
			p.log.Warn("error handling checkout event", zap.Error(err))
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing reader", zap.Error(err))
	}
}

type checkoutEvent struct {
	RegisterID string `json:"register_id"`
	SaleID     string `json:"sale_id"`
}

func (p *Poller) handleMessage(ctx context.Context, value []byte) error {
	var event checkoutEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("parse checkout event: %w", err)
	}
	if event.RegisterID == "" {
		return fmt.Errorf("checkout event missing register_id")
	}

	if event.RegisterID != p.reg.ID() {
		return nil // another terminal's sale
	}

	if err := p.reg.Clear(ctx); err != nil {
		return fmt.Errorf("clear register after checkout: %w", err)
	}

	p.log.Info("register cleared after finalized sale",
		zap.String("register_id", event.RegisterID),
		zap.String("sale_id", event.SaleID))
	return nil
}
