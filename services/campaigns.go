package services

import (
	"context"
	"strings"

	"metahire/models"
	"metahire/store"
	"metahire/utils"
)

type Campaigns struct {
	store store.Store
	scope *Scope
}

func NewCampaigns(st store.Store, scope *Scope) *Campaigns {
	return &Campaigns{store: st, scope: scope}
}

// CampaignInput is the writable part of a campaign.
type CampaignInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description"`
	Status      string  `json:"status" validate:"omitempty,max=30"`
}

func (c *Campaigns) Create(ctx context.Context, caller Caller, in CampaignInput) (*models.Campaign, error) {
	if err := caller.requireSuperadmin(); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, Validation("invalid campaign", err)
	}

	by := caller.ProfileID()
	campaign := &models.Campaign{
		Name:        in.Name,
		Description: optional(in.Description),
		Status:      in.Status,
		CreatedBy:   &by,
	}
	if err := c.store.Campaigns().Insert(ctx, campaign); err != nil {
		return nil, fromStore("campaign", err)
	}
	return campaign, nil
}

func (c *Campaigns) Update(ctx context.Context, caller Caller, id string, in CampaignInput) (*models.Campaign, error) {
	if err := caller.requireSuperadmin(); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, Validation("invalid campaign", err)
	}

	campaign, err := c.store.Campaigns().FindByID(ctx, id)
	if err != nil {
		return nil, fromStore("campaign", err)
	}
	campaign.Name = in.Name
	campaign.Description = optional(in.Description)
	if in.Status != "" {
		campaign.Status = in.Status
	}
	if err := c.store.Campaigns().Update(ctx, campaign); err != nil {
		return nil, fromStore("campaign", err)
	}
	return campaign, nil
}

// Delete removes a campaign with its assignments and leads.
func (c *Campaigns) Delete(ctx context.Context, caller Caller, id string) error {
	if err := caller.requireSuperadmin(); err != nil {
		return err
	}
	n, err := c.store.Campaigns().Delete(ctx, store.Where("id", id))
	if err != nil {
		return fromStore("campaign", err)
	}
	if n == 0 {
		return NotFound("campaign")
	}
	return nil
}

func (c *Campaigns) List(ctx context.Context, caller Caller) ([]models.Campaign, error) {
	return c.scope.VisibleCampaigns(ctx, caller)
}

func (c *Campaigns) Get(ctx context.Context, caller Caller, id string) (*models.Campaign, error) {
	ok, err := c.scope.CanSeeCampaign(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFound("campaign")
	}
	campaign, err := c.store.Campaigns().FindByID(ctx, id)
	if err != nil {
		return nil, fromStore("campaign", err)
	}
	return campaign, nil
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	return utils.OptionalString(*s)
}
