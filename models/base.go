package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the identity and timestamps shared by most tables.
type Base struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// All returns every model in dependency order, for migrations.
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&Account{},
		&Campaign{},
		&CampaignAssignment{},
		&Lead{},
		&Customer{},
		&Payment{},
		&LeadStatusHistory{},
	}
}
