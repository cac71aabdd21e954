// Package postgres provides PostgreSQL implementation of the quotes repository.
package postgres

import (
	"context"
	"fmt"

	"github.com/bissquit/quotedesk/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the quotes.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a quote and fills its ID and CreatedAt.
func (r *Repository) Create(ctx context.Context, quote *domain.Quote) error {
	if quote.Photos == nil {
		quote.Photos = make([]string, 0)
	}

	query := `
		INSERT INTO quotes (
			name, email, phone, service_type, building_type, floors, area_m2,
			address, execution_date, budget, urgency, comments, photos, status, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		quote.Name,
		quote.Email,
		quote.Phone,
		quote.ServiceType,
		quote.BuildingType,
		quote.Floors,
		quote.AreaM2,
		quote.Address,
		quote.ExecutionDate,
		quote.Budget,
		string(quote.Urgency),
		quote.Comments,
		quote.Photos,
		string(quote.Status),
		quote.Notes,
	).Scan(&quote.ID, &quote.CreatedAt)

	if err != nil {
		return fmt.Errorf("create quote: %w", err)
	}
	return nil
}

// List retrieves all quotes ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context) ([]domain.Quote, error) {
	query := `
		SELECT id, name, email, phone, service_type, building_type, floors, area_m2,
		       address, execution_date, budget, urgency, comments, photos, status, notes,
		       created_at
		FROM quotes
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]domain.Quote, 0)
	for rows.Next() {
		var (
			quote   domain.Quote
			urgency string
			status  string
		)
		err := rows.Scan(
			&quote.ID,
			&quote.Name,
			&quote.Email,
			&quote.Phone,
			&quote.ServiceType,
			&quote.BuildingType,
			&quote.Floors,
			&quote.AreaM2,
			&quote.Address,
			&quote.ExecutionDate,
			&quote.Budget,
			&urgency,
			&quote.Comments,
			&quote.Photos,
			&status,
			&quote.Notes,
			&quote.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quote.Urgency = domain.Urgency(urgency)
		quote.Status = domain.QuoteStatus(status)
		if quote.Photos == nil {
			quote.Photos = make([]string, 0)
		}
		quotes = append(quotes, quote)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return quotes, nil
}
