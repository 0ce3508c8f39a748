package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadStatus is a stage of the sales pipeline.
type LeadStatus string

const (
	LeadStatusNew           LeadStatus = "new"
	LeadStatusContacted     LeadStatus = "contacted"
	LeadStatusInterested    LeadStatus = "interested"
	LeadStatusNotInterested LeadStatus = "not_interested"
	LeadStatusPotential     LeadStatus = "potential"
	LeadStatusNotAttended   LeadStatus = "not_attended"
	LeadStatusBusyCallBack  LeadStatus = "busy_call_back"
	LeadStatusPayLater      LeadStatus = "pay_later"
	LeadStatusQualified     LeadStatus = "qualified"
	LeadStatusProposal      LeadStatus = "proposal"
	LeadStatusNegotiation   LeadStatus = "negotiation"
	LeadStatusClosedWon     LeadStatus = "closed_won"
	LeadStatusClosedLost    LeadStatus = "closed_lost"
)

// AllLeadStatuses returns the pipeline stages in display order.
func AllLeadStatuses() []LeadStatus {
	return []LeadStatus{
		LeadStatusNew,
		LeadStatusContacted,
		LeadStatusInterested,
		LeadStatusNotInterested,
		LeadStatusPotential,
		LeadStatusNotAttended,
		LeadStatusBusyCallBack,
		LeadStatusPayLater,
		LeadStatusQualified,
		LeadStatusProposal,
		LeadStatusNegotiation,
		LeadStatusClosedWon,
		LeadStatusClosedLost,
	}
}

func (s LeadStatus) IsValid() bool {
	for _, v := range AllLeadStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

// Lead is a prospective customer.
type Lead struct {
	Base
	CampaignID *string    `gorm:"type:varchar(36);index" json:"campaign_id,omitempty"`
	FirstName  string     `gorm:"not null" json:"first_name"`
	LastName   string     `gorm:"not null" json:"last_name"`
	Email      *string    `json:"email,omitempty"`
	Phone      *string    `json:"phone,omitempty"`
	Company    *string    `json:"company,omitempty"`
	Position   *string    `json:"position,omitempty"`
	Status     LeadStatus `gorm:"type:varchar(30);not null;index" json:"status"`
	Notes      *string    `json:"notes,omitempty"`
	AssignedTo *string    `gorm:"type:varchar(36);index" json:"assigned_to,omitempty"`

	Campaign *Campaign `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"-"`
	Assignee *Profile  `gorm:"foreignKey:AssignedTo;constraint:OnDelete:SET NULL" json:"-"`
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
	return l.Base.BeforeCreate(tx)
}

// LeadStatusHistory is an append-only record of status changes and comments.
// A comment has OldStatus equal to NewStatus.
type LeadStatusHistory struct {
	ID        string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	LeadID    string      `gorm:"type:varchar(36);not null;index" json:"lead_id"`
	OldStatus *LeadStatus `gorm:"type:varchar(30)" json:"old_status,omitempty"`
	NewStatus LeadStatus  `gorm:"type:varchar(30);not null" json:"new_status"`
	ChangedBy *string     `gorm:"type:varchar(36)" json:"changed_by,omitempty"`
	ChangedAt time.Time   `gorm:"autoCreateTime" json:"changed_at"`
	Notes     *string     `json:"notes,omitempty"`

	Lead    *Lead    `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE" json:"-"`
	Changer *Profile `gorm:"foreignKey:ChangedBy;constraint:OnDelete:SET NULL" json:"-"`
}

func (LeadStatusHistory) TableName() string {
	return "lead_status_history"
}

func (h *LeadStatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
