package services

import "metahire/models"

type callerKind int

const (
	callerNone callerKind = iota
	callerSuperadmin
	callerStaff
)

// Caller is the authenticated principal an operation runs on behalf of. It
// can only be built through Superadmin, Staff or CallerFor; the zero Caller
// has no access to anything.
type Caller struct {
	kind      callerKind
	profileID string
}

func Superadmin(profileID string) Caller {
	return Caller{kind: callerSuperadmin, profileID: profileID}
}

func Staff(profileID string) Caller {
	return Caller{kind: callerStaff, profileID: profileID}
}

// CallerFor derives the capability from a stored profile. Profiles with an
// unknown role get the zero Caller.
func CallerFor(p *models.Profile) Caller {
	if p == nil {
		return Caller{}
	}
	switch p.Role {
	case models.RoleSuperadmin:
		return Superadmin(p.ID)
	case models.RoleStaff:
		return Staff(p.ID)
	}
	return Caller{}
}

func (c Caller) ProfileID() string {
	return c.profileID
}

func (c Caller) IsSuperadmin() bool {
	return c.kind == callerSuperadmin && c.profileID != ""
}

func (c Caller) IsStaff() bool {
	return c.kind == callerStaff && c.profileID != ""
}

func (c Caller) requireSuperadmin() error {
	if !c.IsSuperadmin() {
		return Forbidden("superadmin access required")
	}
	return nil
}

func (c Caller) requireAuthenticated() error {
	if !c.IsSuperadmin() && !c.IsStaff() {
		return Unauthorized("authentication required")
	}
	return nil
}
