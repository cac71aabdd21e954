package domain

import "time"

// QuoteStatus is the lifecycle label of a quote request.
type QuoteStatus string

// Quote statuses. Only QuoteStatusNew is assigned by the application;
// the others are set by staff directly in the database.
const (
	QuoteStatusNew     QuoteStatus = "new"
	QuoteStatusPending QuoteStatus = "pending"
	QuoteStatusQuoted  QuoteStatus = "quoted"
	QuoteStatusClosed  QuoteStatus = "closed"
)

// Urgency is how soon the customer needs the work done.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Quote is a customer request for a service estimate.
type Quote struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	ServiceType   string      `json:"service_type"`
	BuildingType  string      `json:"building_type"`
	Floors        *int        `json:"floors,omitempty"`
	AreaM2        *float64    `json:"area_m2,omitempty"`
	Address       string      `json:"address"`
	ExecutionDate *time.Time  `json:"execution_date,omitempty"`
	Budget        string      `json:"budget"`
	Urgency       Urgency     `json:"urgency,omitempty"`
	Comments      string      `json:"comments"`
	Photos        []string    `json:"photos"`
	Status        QuoteStatus `json:"status"`
	Notes         string      `json:"notes"`
	CreatedAt     time.Time   `json:"created_at"`
}
