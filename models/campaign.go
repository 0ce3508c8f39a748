package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const CampaignStatusActive = "active"

// Campaign groups leads for a marketing effort.
type Campaign struct {
	Base
	Name        string  `gorm:"not null" json:"name"`
	Description *string `json:"description,omitempty"`
	Status      string  `gorm:"type:varchar(30);not null" json:"status"`
	CreatedBy   *string `gorm:"type:varchar(36);index" json:"created_by,omitempty"`

	Creator *Profile `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL" json:"-"`
}

func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.Status == "" {
		c.Status = CampaignStatusActive
	}
	return c.Base.BeforeCreate(tx)
}

// CampaignAssignment grants a staff member visibility into a campaign.
// A (campaign, staff) pair exists at most once.
type CampaignAssignment struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CampaignID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_assignment_pair" json:"campaign_id"`
	StaffID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_assignment_pair;index" json:"staff_id"`
	AssignedBy *string   `gorm:"type:varchar(36)" json:"assigned_by,omitempty"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assigned_at"`

	Campaign *Campaign `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"-"`
	Staff    *Profile  `gorm:"foreignKey:StaffID;constraint:OnDelete:CASCADE" json:"-"`
	Assigner *Profile  `gorm:"foreignKey:AssignedBy;constraint:OnDelete:SET NULL" json:"-"`
}

func (a *CampaignAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
