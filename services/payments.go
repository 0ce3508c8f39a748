package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"metahire/metrics"
	"metahire/models"
	"metahire/store"
	"metahire/utils"
)

// Payments records money owed by customers. Anyone who can see a customer
// can manage its payments.
type Payments struct {
	store   store.Store
	scope   *Scope
	metrics *metrics.Metrics
}

func NewPayments(st store.Store, scope *Scope, m *metrics.Metrics) *Payments {
	return &Payments{store: st, scope: scope, metrics: m}
}

// PaymentInput is the writable part of a payment. Currency defaults to USD
// and status to pending.
type PaymentInput struct {
	Amount        float64    `json:"amount" validate:"gt=0"`
	Currency      string     `json:"currency" validate:"omitempty,iso4217"`
	PaymentDate   *time.Time `json:"payment_date"`
	DueDate       *time.Time `json:"due_date"`
	Status        string     `json:"status" validate:"omitempty,payment_status"`
	PaymentMethod *string    `json:"payment_method"`
	Notes         *string    `json:"notes"`
}

func (in *PaymentInput) normalize() error {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if err := utils.ValidateStruct(in); err != nil {
		return Validation("invalid payment", err)
	}
	if models.Cents(in.Amount) <= 0 {
		return Validation("payment amount must be at least 0.01", nil)
	}
	in.Amount = models.FromCents(models.Cents(in.Amount))
	return nil
}

func (in PaymentInput) apply(p *models.Payment) {
	p.Amount = in.Amount
	p.Currency = in.Currency
	if p.Currency == "" {
		p.Currency = models.DefaultCurrency
	}
	p.Status = models.PaymentStatus(in.Status)
	if p.Status == "" {
		p.Status = models.PaymentStatusPending
	}
	p.PaymentDate = in.PaymentDate
	p.DueDate = in.DueDate
	p.PaymentMethod = optional(in.PaymentMethod)
	p.Notes = optional(in.Notes)
}

func (s *Payments) Create(ctx context.Context, caller Caller, customerID string, in PaymentInput) (*models.Payment, error) {
	if err := caller.requireAuthenticated(); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.scope.customer(ctx, caller, customerID); err != nil {
		return nil, err
	}

	by := caller.ProfileID()
	payment := &models.Payment{CustomerID: customerID, CreatedBy: &by}
	in.apply(payment)
	if err := s.store.Payments().Insert(ctx, payment); err != nil {
		return nil, fromStore("payment", err)
	}
	s.metrics.RecordPayment(payment.Currency)
	return payment, nil
}

// payment loads a payment whose customer the caller can see.
func (s *Payments) payment(ctx context.Context, caller Caller, id string) (*models.Payment, error) {
	payment, err := s.store.Payments().FindByID(ctx, id)
	if err != nil {
		return nil, fromStore("payment", err)
	}
	if _, err := s.scope.customer(ctx, caller, payment.CustomerID); err != nil {
		if IsNotFound(err) {
			return nil, NotFound("payment")
		}
		return nil, err
	}
	return payment, nil
}

func (s *Payments) Update(ctx context.Context, caller Caller, id string, in PaymentInput) (*models.Payment, error) {
	if err := caller.requireAuthenticated(); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	payment, err := s.payment(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	in.apply(payment)
	if err := s.store.Payments().Update(ctx, payment); err != nil {
		return nil, fromStore("payment", err)
	}
	return payment, nil
}

func (s *Payments) Delete(ctx context.Context, caller Caller, id string) error {
	if err := caller.requireAuthenticated(); err != nil {
		return err
	}
	if _, err := s.payment(ctx, caller, id); err != nil {
		return err
	}
	if _, err := s.store.Payments().Delete(ctx, store.Where("id", id)); err != nil {
		return fromStore("payment", err)
	}
	return nil
}

// List returns visible payments, optionally of one customer.
func (s *Payments) List(ctx context.Context, caller Caller, customerID string) ([]models.Payment, error) {
	if customerID != "" {
		if _, err := s.scope.customer(ctx, caller, customerID); err != nil {
			return nil, err
		}
	}
	return s.scope.VisiblePayments(ctx, caller, customerID)
}

// CurrencySummary totals a customer's payments in one currency. Total counts
// every payment regardless of status.
type CurrencySummary struct {
	Currency string  `json:"currency"`
	Total    float64 `json:"total"`
	Paid     float64 `json:"paid"`
	Pending  float64 `json:"pending"`
}

// Summary groups a customer's payments by currency, sorted by currency code.
func (s *Payments) Summary(ctx context.Context, caller Caller, customerID string) ([]CurrencySummary, error) {
	payments, err := s.List(ctx, caller, customerID)
	if err != nil {
		return nil, err
	}
	return summarize(payments), nil
}

type centTotals struct {
	total, paid, pending int64
}

// summarize adds amounts in whole cents so the totals carry no binary
// rounding error.
func summarize(payments []models.Payment) []CurrencySummary {
	byCurrency := map[string]*centTotals{}
	for _, p := range payments {
		currency := p.Currency
		if currency == "" {
			currency = models.DefaultCurrency
		}
		sum, ok := byCurrency[currency]
		if !ok {
			sum = &centTotals{}
			byCurrency[currency] = sum
		}
		cents := models.Cents(p.Amount)
		sum.total += cents
		switch p.Status {
		case models.PaymentStatusPaid:
			sum.paid += cents
		case models.PaymentStatusPending:
			sum.pending += cents
		}
	}

	out := make([]CurrencySummary, 0, len(byCurrency))
	for currency, sum := range byCurrency {
		out = append(out, CurrencySummary{
			Currency: currency,
			Total:    models.FromCents(sum.total),
			Paid:     models.FromCents(sum.paid),
			Pending:  models.FromCents(sum.pending),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
