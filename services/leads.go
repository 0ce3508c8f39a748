package services

import (
	"context"
	"strings"

	"metahire/models"
	"metahire/store"
	"metahire/utils"
)

type Leads struct {
	store         store.Store
	scope         *Scope
	defaultRegion string
}

func NewLeads(st store.Store, scope *Scope, defaultRegion string) *Leads {
	return &Leads{store: st, scope: scope, defaultRegion: defaultRegion}
}

// LeadInput is a manually entered lead. New leads always start as new;
// status changes go through the pipeline.
type LeadInput struct {
	CampaignID *string `json:"campaign_id"`
	FirstName  string  `json:"first_name" validate:"required,max=100"`
	LastName   string  `json:"last_name" validate:"max=100"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Company    string  `json:"company" validate:"max=200"`
	Position   string  `json:"position" validate:"max=200"`
	Notes      string  `json:"notes"`
	AssignedTo *string `json:"assigned_to"`
}

func (l *Leads) Create(ctx context.Context, caller Caller, in LeadInput) (*models.Lead, error) {
	if err := caller.requireSuperadmin(); err != nil {
		return nil, err
	}
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, Validation("invalid lead", err)
	}
	email, err := utils.NormalizeEmail(in.Email)
	if err != nil {
		return nil, Validation("invalid lead", err)
	}

	lead := &models.Lead{
		CampaignID: optional(in.CampaignID),
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      email,
		Phone:      utils.NormalizePhone(in.Phone, l.defaultRegion),
		Company:    utils.OptionalString(in.Company),
		Position:   utils.OptionalString(in.Position),
		Notes:      utils.OptionalString(in.Notes),
		AssignedTo: optional(in.AssignedTo),
	}
	if err := l.checkReferences(ctx, lead.CampaignID, lead.AssignedTo); err != nil {
		return nil, err
	}
	if err := l.store.Leads().Insert(ctx, lead); err != nil {
		return nil, fromStore("lead", err)
	}
	return lead, nil
}

func (l *Leads) checkReferences(ctx context.Context, campaignID, assignedTo *string) error {
	if campaignID != nil {
		if _, err := l.store.Campaigns().FindByID(ctx, *campaignID); err != nil {
			return fromStore("campaign", err)
		}
	}
	if assignedTo != nil {
		if _, err := l.store.Profiles().FindByID(ctx, *assignedTo); err != nil {
			return fromStore("staff member", err)
		}
	}
	return nil
}

// LeadUpdate holds field edits; nil fields are left alone. Moving a lead to
// another campaign or assignee requires a superadmin.
type LeadUpdate struct {
	FirstName  *string `json:"first_name" validate:"omitempty,max=100"`
	LastName   *string `json:"last_name" validate:"omitempty,max=100"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Company    *string `json:"company" validate:"omitempty,max=200"`
	Position   *string `json:"position" validate:"omitempty,max=200"`
	Notes      *string `json:"notes"`
	CampaignID *string `json:"campaign_id"`
	AssignedTo *string `json:"assigned_to"`
}

func (l *Leads) Update(ctx context.Context, caller Caller, id string, in LeadUpdate) (*models.Lead, error) {
	if err := caller.requireAuthenticated(); err != nil {
		return nil, err
	}
	if (in.CampaignID != nil || in.AssignedTo != nil) && !caller.IsSuperadmin() {
		return nil, Forbidden("only a superadmin can move or reassign leads")
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, Validation("invalid lead", err)
	}

	lead, err := l.scope.lead(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		first := strings.TrimSpace(*in.FirstName)
		if first == "" {
			return nil, Validation("invalid lead", errRequired("first_name"))
		}
		lead.FirstName = first
	}
	if in.LastName != nil {
		lead.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		email, err := utils.NormalizeEmail(*in.Email)
		if err != nil {
			return nil, Validation("invalid lead", err)
		}
		lead.Email = email
	}
	if in.Phone != nil {
		lead.Phone = utils.NormalizePhone(*in.Phone, l.defaultRegion)
	}
	if in.Company != nil {
		lead.Company = utils.OptionalString(*in.Company)
	}
	if in.Position != nil {
		lead.Position = utils.OptionalString(*in.Position)
	}
	if in.Notes != nil {
		lead.Notes = utils.OptionalString(*in.Notes)
	}
	// An empty string detaches the lead.
	if in.CampaignID != nil {
		lead.CampaignID = utils.OptionalString(*in.CampaignID)
	}
	if in.AssignedTo != nil {
		lead.AssignedTo = utils.OptionalString(*in.AssignedTo)
	}
	if err := l.checkReferences(ctx, lead.CampaignID, lead.AssignedTo); err != nil {
		return nil, err
	}

	if err := l.store.Leads().Update(ctx, lead); err != nil {
		return nil, fromStore("lead", err)
	}
	return lead, nil
}

// Delete removes leads by id together with their history. Customers
// converted from them are kept.
func (l *Leads) Delete(ctx context.Context, caller Caller, ids ...string) (int64, error) {
	if err := caller.requireSuperadmin(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, Validation("no lead ids given", nil)
	}
	n, err := l.store.Leads().Delete(ctx, store.In("id", ids))
	if err != nil {
		return 0, fromStore("lead", err)
	}
	if n == 0 {
		return 0, NotFound("lead")
	}
	return n, nil
}

// Assign hands leads to a staff member; an empty staffID unassigns them.
func (l *Leads) Assign(ctx context.Context, caller Caller, ids []string, staffID string) (int64, error) {
	if err := caller.requireSuperadmin(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, Validation("no lead ids given", nil)
	}
	var assignee interface{}
	if staffID != "" {
		if _, err := l.store.Profiles().FindByID(ctx, staffID); err != nil {
			return 0, fromStore("staff member", err)
		}
		assignee = staffID
	}
	n, err := l.store.Leads().UpdateWhere(ctx, store.In("id", ids), map[string]interface{}{"assigned_to": assignee})
	if err != nil {
		return 0, fromStore("lead", err)
	}
	return n, nil
}

func (l *Leads) List(ctx context.Context, caller Caller, q LeadQuery) ([]models.Lead, error) {
	if q.Status != "" && !q.Status.IsValid() {
		return nil, Validation("invalid status filter", nil)
	}
	return l.scope.VisibleLeads(ctx, caller, q)
}

func (l *Leads) Get(ctx context.Context, caller Caller, id string) (*models.Lead, error) {
	return l.scope.lead(ctx, caller, id)
}
