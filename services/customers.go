package services

import (
	"context"
	"strings"

	"metahire/models"
	"metahire/store"
	"metahire/utils"
)

type Customers struct {
	store         store.Store
	scope         *Scope
	defaultRegion string
}

func NewCustomers(st store.Store, scope *Scope, defaultRegion string) *Customers {
	return &Customers{store: st, scope: scope, defaultRegion: defaultRegion}
}

// CustomerUpdate holds contact edits; nil fields are left alone.
type CustomerUpdate struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Company   *string `json:"company" validate:"omitempty,max=200"`
	Position  *string `json:"position" validate:"omitempty,max=200"`
	Notes     *string `json:"notes"`
}

func (c *Customers) List(ctx context.Context, caller Caller) ([]models.Customer, error) {
	return c.scope.VisibleCustomers(ctx, caller)
}

func (c *Customers) Get(ctx context.Context, caller Caller, id string) (*models.Customer, error) {
	return c.scope.customer(ctx, caller, id)
}

func (c *Customers) Update(ctx context.Context, caller Caller, id string, in CustomerUpdate) (*models.Customer, error) {
	if err := caller.requireAuthenticated(); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, Validation("invalid customer", err)
	}
	customer, err := c.scope.customer(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		first := strings.TrimSpace(*in.FirstName)
		if first == "" {
			return nil, Validation("invalid customer", errRequired("first_name"))
		}
		customer.FirstName = first
	}
	if in.LastName != nil {
		customer.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		email, err := utils.NormalizeEmail(*in.Email)
		if err != nil {
			return nil, Validation("invalid customer", err)
		}
		customer.Email = email
	}
	if in.Phone != nil {
		customer.Phone = utils.NormalizePhone(*in.Phone, c.defaultRegion)
	}
	if in.Company != nil {
		customer.Company = utils.OptionalString(*in.Company)
	}
	if in.Position != nil {
		customer.Position = utils.OptionalString(*in.Position)
	}
	if in.Notes != nil {
		customer.Notes = utils.OptionalString(*in.Notes)
	}

	if err := c.store.Customers().Update(ctx, customer); err != nil {
		return nil, fromStore("customer", err)
	}
	return customer, nil
}

// Delete removes a customer and its payments.
func (c *Customers) Delete(ctx context.Context, caller Caller, id string) error {
	if err := caller.requireSuperadmin(); err != nil {
		return err
	}
	n, err := c.store.Customers().Delete(ctx, store.Where("id", id))
	if err != nil {
		return fromStore("customer", err)
	}
	if n == 0 {
		return NotFound("customer")
	}
	return nil
}
