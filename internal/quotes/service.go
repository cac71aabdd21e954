// Package quotes provides HTTP handlers and business logic for quote requests.
package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bissquit/quotedesk/internal/domain"
	"github.com/bissquit/quotedesk/internal/pkg/ctxlog"
	"github.com/bissquit/quotedesk/internal/pkg/httputil"
	"github.com/bissquit/quotedesk/internal/pkg/metrics"
	"github.com/bissquit/quotedesk/internal/uploads"
	"github.com/go-playground/validator/v10"
)

// MaxPhotos is the number of photos one quote may carry.
const MaxPhotos = 10

// Submission sources, used as metric labels.
const (
	SourceAPI = "api"
	SourceWeb = "web"
)

// QuoteCreatedHandler is called after a quote is persisted.
type QuoteCreatedHandler interface {
	OnQuoteCreated(ctx context.Context, quote *domain.Quote) error
}

// PhotoUploader stores one photo and returns its public URL.
type PhotoUploader interface {
	Upload(ctx context.Context, file uploads.File) (string, error)
}

// CreateInput is a quote request as submitted by a customer.
type CreateInput struct {
	Name          string   `json:"name" validate:"required,min=3,max=255"`
	Email         string   `json:"email" validate:"required,email,max=255"`
	Phone         string   `json:"phone" validate:"required,min=7,max=50"`
	ServiceType   string   `json:"service_type" validate:"required,min=2,max=100"`
	BuildingType  string   `json:"building_type" validate:"required,min=2,max=100"`
	Floors        *int     `json:"floors" validate:"omitnil,min=1,max=500"`
	AreaM2        *float64 `json:"area_m2" validate:"omitnil,gt=0"`
	Address       string   `json:"address" validate:"max=500"`
	ExecutionDate string   `json:"execution_date" validate:"omitempty,datetime=2006-01-02"`
	Budget        string   `json:"budget" validate:"max=100"`
	Urgency       string   `json:"urgency" validate:"omitempty,oneof=high medium low"`
	Comments      string   `json:"comments" validate:"max=5000"`
	Photos        []string `json:"photos" validate:"omitempty,max=10,dive,url"`
}

func (in *CreateInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.ServiceType = strings.TrimSpace(in.ServiceType)
	in.BuildingType = strings.TrimSpace(in.BuildingType)
	in.Address = strings.TrimSpace(in.Address)
	in.ExecutionDate = strings.TrimSpace(in.ExecutionDate)
	in.Budget = strings.TrimSpace(in.Budget)
	in.Urgency = strings.TrimSpace(in.Urgency)
	in.Comments = strings.TrimSpace(in.Comments)
}

// ToDomain converts validated input to a domain model.
func (in *CreateInput) ToDomain() *domain.Quote {
	quote := &domain.Quote{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		ServiceType:  in.ServiceType,
		BuildingType: in.BuildingType,
		Floors:       in.Floors,
		AreaM2:       in.AreaM2,
		Address:      in.Address,
		Budget:       in.Budget,
		Urgency:      domain.Urgency(in.Urgency),
		Comments:     in.Comments,
		Photos:       make([]string, 0, len(in.Photos)),
		Status:       domain.QuoteStatusNew,
	}
	quote.Photos = append(quote.Photos, in.Photos...)

	if in.ExecutionDate != "" {
		if date, err := time.Parse(time.DateOnly, in.ExecutionDate); err == nil {
			quote.ExecutionDate = &date
		}
	}
	return quote
}

// Service implements quote business logic.
type Service struct {
	repo           Repository
	uploader       PhotoUploader
	createdHandler QuoteCreatedHandler
	validate       *validator.Validate
}

// NewService creates a new quote service.
// createdHandler may be nil.
func NewService(repo Repository, uploader PhotoUploader, createdHandler QuoteCreatedHandler) *Service {
	return &Service{
		repo:           repo,
		uploader:       uploader,
		createdHandler: createdHandler,
		validate:       httputil.NewValidator(),
	}
}

// Validate normalizes and checks the input. Field failures are returned
// as validator.ValidationErrors wrapped in ErrValidation.
func (s *Service) Validate(input *CreateInput) error {
	input.normalize()
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// Create validates and persists a quote submitted through the JSON API.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Quote, error) {
	if err := s.Validate(&input); err != nil {
		return nil, err
	}
	return s.create(ctx, input.ToDomain(), SourceAPI)
}

// Submit validates the input, uploads the photos one by one and persists
// the quote with their URLs appended. The first failed upload aborts the
// submission; photos already uploaded stay with the image host.
func (s *Service) Submit(ctx context.Context, input CreateInput, photos []uploads.File) (*domain.Quote, error) {
	if err := s.Validate(&input); err != nil {
		return nil, err
	}
	if len(input.Photos)+len(photos) > MaxPhotos {
		return nil, fmt.Errorf("%w: at most %d", ErrTooManyPhotos, MaxPhotos)
	}

	quote := input.ToDomain()
	for i, photo := range photos {
		url, err := s.uploader.Upload(ctx, photo)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("quote submission aborted",
				"photo", i+1,
				"uploaded", i,
				"error", err,
			)
			return nil, fmt.Errorf("%w: photo %d: %w", ErrPhotoUploading, i+1, err)
		}
		quote.Photos = append(quote.Photos, url)
	}

	return s.create(ctx, quote, SourceWeb)
}

func (s *Service) create(ctx context.Context, quote *domain.Quote, source string) (*domain.Quote, error) {
	if err := s.repo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}

	metrics.QuotesCreated.WithLabelValues(source).Inc()
	logger := ctxlog.FromContext(ctx)
	logger.Info("quote created", "quote_id", quote.ID, "source", source, "photos", len(quote.Photos))

	if s.createdHandler != nil {
		if err := s.createdHandler.OnQuoteCreated(ctx, quote); err != nil {
			logger.Error("quote created handler failed", "quote_id", quote.ID, "error", err)
		}
	}

	return quote, nil
}

// List returns all quotes, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Quote, error) {
	quotes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	return quotes, nil
}
