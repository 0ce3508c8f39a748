package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"metahire/metrics"
	"metahire/models"
	"metahire/store"
	"metahire/utils"
)

// MsgCustomerNotCreated is the partial-failure message of a closed_won
// transition whose customer row could not be written.
const MsgCustomerNotCreated = "lead status updated but failed to create customer record"

// Pipeline moves leads between statuses. Every move is recorded in the lead
// history, and reaching closed_won materializes a customer.
type Pipeline struct {
	store   store.Store
	scope   *Scope
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewPipeline(st store.Store, scope *Scope, m *metrics.Metrics, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{store: st, scope: scope, metrics: m, log: log, now: time.Now}
}

// TransitionResult carries everything a transition wrote. Customer is set
// only for a successful closed_won conversion.
type TransitionResult struct {
	Lead     *models.Lead              `json:"lead"`
	History  *models.LeadStatusHistory `json:"history"`
	Customer *models.Customer          `json:"customer,omitempty"`
}

// Transition sets the status of a lead. Any status may follow any other,
// including itself.
//
// The status update and its history row are written together. Customer
// creation for closed_won runs afterwards and is not rolled back into the
// transition: when it fails the result is still returned, together with a
// PartialFailure error. Re-entering closed_won creates another customer.
func (p *Pipeline) Transition(ctx context.Context, caller Caller, leadID string, to models.LeadStatus) (*TransitionResult, error) {
	if err := caller.requireAuthenticated(); err != nil {
		return nil, err
	}
	if !to.IsValid() {
		return nil, Validation(fmt.Sprintf("invalid lead status %q", to), nil)
	}

	lead, err := p.scope.lead(ctx, caller, leadID)
	if err != nil {
		return nil, err
	}
	actor, err := p.store.Profiles().FindByID(ctx, caller.ProfileID())
	if err != nil {
		return nil, fromStore("profile", err)
	}

	from := lead.Status
	now := p.now()
	entry := &models.LeadStatusHistory{
		LeadID:    lead.ID,
		OldStatus: &from,
		NewStatus: to,
		ChangedBy: &actor.ID,
		ChangedAt: now,
	}

	err = p.store.Atomic(ctx, func(tx store.Store) error {
		if err := tx.History().Insert(ctx, entry); err != nil {
			return err
		}
		lead.Status = to
		return tx.Leads().Update(ctx, lead)
	})
	if err != nil {
		return nil, fromStore("lead", err)
	}
	p.metrics.RecordTransition(string(to))

	log := p.log.WithFields(logrus.Fields{
		"lead_id":    lead.ID,
		"from":       from,
		"to":         to,
		"profile_id": actor.ID,
	})
	log.Info("lead status changed")

	result := &TransitionResult{Lead: lead, History: entry}
	if to != models.LeadStatusClosedWon {
		return result, nil
	}

	customer := customerFromLead(lead, actor.ID, now)
	if err := p.store.Customers().Insert(ctx, customer); err != nil {
		p.metrics.RecordConversion(false)
		utils.LogError("customer_conversion_failed", err, map[string]interface{}{
			"lead_id":    lead.ID,
			"profile_id": actor.ID,
		})
		return result, PartialFailure(MsgCustomerNotCreated, err)
	}
	p.metrics.RecordConversion(true)
	log.WithField("customer_id", customer.ID).Info("lead converted to customer")

	result.Customer = customer
	return result, nil
}

func customerFromLead(lead *models.Lead, convertedBy string, at time.Time) *models.Customer {
	leadID := lead.ID
	return &models.Customer{
		LeadID:      &leadID,
		FirstName:   lead.FirstName,
		LastName:    lead.LastName,
		Email:       lead.Email,
		Phone:       lead.Phone,
		Company:     lead.Company,
		Position:    lead.Position,
		Notes:       lead.Notes,
		ConvertedAt: at,
		ConvertedBy: &convertedBy,
	}
}

// AddComment appends a note to the lead history without changing status.
func (p *Pipeline) AddComment(ctx context.Context, caller Caller, leadID, text string) (*models.LeadStatusHistory, error) {
	if err := caller.requireAuthenticated(); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, Validation("comment text is required", nil)
	}

	lead, err := p.scope.lead(ctx, caller, leadID)
	if err != nil {
		return nil, err
	}
	actor, err := p.store.Profiles().FindByID(ctx, caller.ProfileID())
	if err != nil {
		return nil, fromStore("profile", err)
	}

	current := lead.Status
	entry := &models.LeadStatusHistory{
		LeadID:    lead.ID,
		OldStatus: &current,
		NewStatus: current,
		ChangedBy: &actor.ID,
		ChangedAt: p.now(),
		Notes:     &text,
	}
	if err := p.store.History().Insert(ctx, entry); err != nil {
		return nil, fromStore("lead history", err)
	}
	return entry, nil
}

// History lists the status changes and comments of a lead, newest first.
func (p *Pipeline) History(ctx context.Context, caller Caller, leadID string) ([]models.LeadStatusHistory, error) {
	if err := caller.requireAuthenticated(); err != nil {
		return nil, err
	}
	if _, err := p.scope.lead(ctx, caller, leadID); err != nil {
		return nil, err
	}
	rows, err := p.store.History().FindWhere(ctx, store.Where("lead_id", leadID).Order("changed_at", true))
	if err != nil {
		return nil, fromStore("lead history", err)
	}
	return rows, nil
}
