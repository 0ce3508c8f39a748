package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Customer is a lead that reached closed_won. The contact fields are a copy
// taken at conversion time.
type Customer struct {
	Base
	LeadID      *string   `gorm:"type:varchar(36);index" json:"lead_id,omitempty"`
	FirstName   string    `gorm:"not null" json:"first_name"`
	LastName    string    `gorm:"not null" json:"last_name"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Company     *string   `json:"company,omitempty"`
	Position    *string   `json:"position,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	ConvertedAt time.Time `json:"converted_at"`
	ConvertedBy *string   `gorm:"type:varchar(36)" json:"converted_by,omitempty"`

	Lead      *Lead    `gorm:"foreignKey:LeadID;constraint:OnDelete:SET NULL" json:"-"`
	Converter *Profile `gorm:"foreignKey:ConvertedBy;constraint:OnDelete:SET NULL" json:"-"`
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusOverdue   PaymentStatus = "overdue"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusOverdue, PaymentStatusCancelled:
		return true
	}
	return false
}

const DefaultCurrency = "USD"

// Payment is money owed or received from a customer.
type Payment struct {
	Base
	CustomerID    string        `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	Amount        float64       `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency      string        `gorm:"type:varchar(3);not null" json:"currency"`
	PaymentDate   *time.Time    `json:"payment_date,omitempty"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	Status        PaymentStatus `gorm:"type:varchar(20);not null" json:"status"`
	PaymentMethod *string       `json:"payment_method,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	CreatedBy     *string       `gorm:"type:varchar(36)" json:"created_by,omitempty"`

	Customer *Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	Creator  *Profile  `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL" json:"-"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	if p.Status == "" {
		p.Status = PaymentStatusPending
	}
	return p.Base.BeforeCreate(tx)
}

// Cents converts an amount to whole minor units, rounding half away from zero.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromCents is the inverse of Cents.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}
