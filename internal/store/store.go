// Package store holds the leg list and market context of an interactive
// strategy session.
package store

import (
	"context"

	"options-strategizer/internal/models"
)

// SessionStore is the single owner of a session's legs. Every read returns a
// fresh copy, so callers can hand the result straight to the engine.
type SessionStore interface {
	// AddLeg validates and stores a leg and returns its assigned ID.
	AddLeg(ctx context.Context, leg models.StrategyLeg) (int64, error)
	// UpdateQuantity is the only mutation allowed on an existing leg.
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	RemoveLeg(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
	// Legs returns the legs in insertion order.
	Legs(ctx context.Context) ([]models.StrategyLeg, error)

	SetMarket(ctx context.Context, market models.MarketContext) error
	Market(ctx context.Context) (models.MarketContext, error)

	Close() error
}
