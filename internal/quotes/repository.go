package quotes

import (
	"context"

	"github.com/bissquit/quotedesk/internal/domain"
)

// Repository defines the interface for quote storage.
type Repository interface {
	// Create persists the quote, filling ID and CreatedAt.
	Create(ctx context.Context, quote *domain.Quote) error
	// List returns all quotes, newest first.
	List(ctx context.Context) ([]domain.Quote, error)
}
