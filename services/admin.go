package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"metahire/models"
	"metahire/store"
	"metahire/utils"
)

// Admin manages staff profiles and their campaign assignments. Every
// operation requires a superadmin caller.
type Admin struct {
	store  store.Store
	hasher PasswordHasher
	log    logrus.FieldLogger
}

func NewAdmin(st store.Store, hasher PasswordHasher, log logrus.FieldLogger) *Admin {
	return &Admin{store: st, hasher: hasher, log: log}
}

func (a *Admin) AddStaff(ctx context.Context, caller Caller, in NewAccount) (*models.Profile, error) {
	if err := caller.requireSuperadmin(); err != nil {
		return nil, err
	}
	profile, err := createAccount(ctx, a.store, a.hasher, in, models.RoleStaff)
	if err != nil {
		return nil, err
	}
	a.log.WithFields(logrus.Fields{"staff_id": profile.ID, "by": caller.ProfileID()}).Info("staff member added")
	return profile, nil
}

// StaffUpdate holds the editable profile fields.
type StaffUpdate struct {
	FullName *string `json:"full_name" validate:"omitempty,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

func (a *Admin) EditStaff(ctx context.Context, caller Caller, staffID string, in StaffUpdate) (*models.Profile, error) {
	if err := caller.requireSuperadmin(); err != nil {
		return nil, err
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &email
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, Validation("invalid staff details", err)
	}

	profile, err := a.store.Profiles().FindByID(ctx, staffID)
	if err != nil {
		return nil, fromStore("staff member", err)
	}
	if in.FullName != nil {
		profile.FullName = utils.OptionalString(*in.FullName)
	}
	if in.Email != nil && *in.Email != profile.Email {
		taken, err := a.store.Profiles().Count(ctx, store.Where("email", *in.Email))
		if err != nil {
			return nil, fromStore("staff member", err)
		}
		if taken > 0 {
			return nil, Conflict("a profile with this email already exists")
		}
		profile.Email = *in.Email
	}

	if err := a.store.Profiles().Update(ctx, profile); err != nil {
		return nil, fromStore("staff member", err)
	}
	return profile, nil
}

// RemoveStaff deletes a staff member's campaign assignments and then the
// profile itself. Leads and other rows that pointed at the profile are kept
// and lose the reference.
func (a *Admin) RemoveStaff(ctx context.Context, caller Caller, staffID string) error {
	if err := caller.requireSuperadmin(); err != nil {
		return err
	}
	profile, err := a.store.Profiles().FindByID(ctx, staffID)
	if err != nil {
		return fromStore("staff member", err)
	}
	if profile.Role != models.RoleStaff {
		return Validation("only staff profiles can be removed", nil)
	}

	err = a.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.Assignments().Delete(ctx, store.Where("staff_id", staffID)); err != nil {
			return err
		}
		_, err := tx.Profiles().Delete(ctx, store.Where("id", staffID))
		return err
	})
	if err != nil {
		return fromStore("staff member", err)
	}
	a.log.WithFields(logrus.Fields{"staff_id": staffID, "by": caller.ProfileID()}).Info("staff member removed")
	return nil
}

// AssignCampaign grants a staff member visibility into a campaign. A pair
// can be assigned only once.
func (a *Admin) AssignCampaign(ctx context.Context, caller Caller, staffID, campaignID string) (*models.CampaignAssignment, error) {
	if err := caller.requireSuperadmin(); err != nil {
		return nil, err
	}
	staff, err := a.store.Profiles().FindByID(ctx, staffID)
	if err != nil {
		return nil, fromStore("staff member", err)
	}
	if staff.Role != models.RoleStaff {
		return nil, Validation("campaigns can only be assigned to staff", nil)
	}
	if _, err := a.store.Campaigns().FindByID(ctx, campaignID); err != nil {
		return nil, fromStore("campaign", err)
	}

	existing, err := a.store.Assignments().Count(ctx, store.Where("campaign_id", campaignID).And("staff_id", staffID))
	if err != nil {
		return nil, fromStore("campaign assignment", err)
	}
	if existing > 0 {
		return nil, Conflict("staff member is already assigned to this campaign")
	}

	by := caller.ProfileID()
	assignment := &models.CampaignAssignment{CampaignID: campaignID, StaffID: staffID, AssignedBy: &by}
	if err := a.store.Assignments().Insert(ctx, assignment); err != nil {
		return nil, fromStore("campaign assignment", err)
	}
	return assignment, nil
}

func (a *Admin) UnassignCampaign(ctx context.Context, caller Caller, assignmentID string) error {
	if err := caller.requireSuperadmin(); err != nil {
		return err
	}
	n, err := a.store.Assignments().Delete(ctx, store.Where("id", assignmentID))
	if err != nil {
		return fromStore("campaign assignment", err)
	}
	if n == 0 {
		return NotFound("campaign assignment")
	}
	return nil
}

// StaffMember is a staff profile with the campaigns assigned to it.
type StaffMember struct {
	models.Profile
	Assignments []models.CampaignAssignment `json:"assignments"`
}

func (a *Admin) ListStaff(ctx context.Context, caller Caller) ([]StaffMember, error) {
	if err := caller.requireSuperadmin(); err != nil {
		return nil, err
	}
	profiles, err := a.store.Profiles().FindWhere(ctx, store.Where("role", models.RoleStaff).Order("created_at", true))
	if err != nil {
		return nil, fromStore("staff", err)
	}
	ids := store.IDs(profiles, func(p *models.Profile) string { return p.ID })
	assignments, err := a.store.Assignments().FindWhere(ctx, store.In("staff_id", ids).Order("assigned_at", false))
	if err != nil {
		return nil, fromStore("campaign assignments", err)
	}

	byStaff := make(map[string][]models.CampaignAssignment, len(profiles))
	for _, as := range assignments {
		byStaff[as.StaffID] = append(byStaff[as.StaffID], as)
	}
	out := make([]StaffMember, 0, len(profiles))
	for _, p := range profiles {
		member := StaffMember{Profile: p, Assignments: byStaff[p.ID]}
		if member.Assignments == nil {
			member.Assignments = []models.CampaignAssignment{}
		}
		out = append(out, member)
	}
	return out, nil
}

func (a *Admin) StaffAssignments(ctx context.Context, caller Caller, staffID string) ([]models.CampaignAssignment, error) {
	if err := caller.requireSuperadmin(); err != nil {
		return nil, err
	}
	if _, err := a.store.Profiles().FindByID(ctx, staffID); err != nil {
		return nil, fromStore("staff member", err)
	}
	rows, err := a.store.Assignments().FindWhere(ctx, store.Where("staff_id", staffID).Order("assigned_at", false))
	if err != nil {
		return nil, fromStore("campaign assignments", err)
	}
	return rows, nil
}
