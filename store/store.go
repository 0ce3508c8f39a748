// Package store defines the typed persistence contract the CRM services are
// written against. The backend lives in gormstore (postgres, on-disk and
// in-memory sqlite).
package store

import (
	"context"
	"errors"

	"metahire/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrConflict      = errors.New("record conflicts with an existing row")
	ErrReference     = errors.New("record references a missing row")
	ErrUnknownColumn = errors.New("unknown column")
)

// Repository is the set of operations available on one table.
type Repository[T any] interface {
	FindByID(ctx context.Context, id string) (*T, error)
	FindWhere(ctx context.Context, f Filter) ([]T, error)
	Count(ctx context.Context, f Filter) (int64, error)
	Insert(ctx context.Context, rows ...*T) error
	Update(ctx context.Context, row *T) error
	UpdateWhere(ctx context.Context, f Filter, changes map[string]interface{}) (int64, error)
	Delete(ctx context.Context, f Filter) (int64, error)
}

// Store bundles the repositories of every table.
//
// Deletes follow the relational rules of the schema: removing a campaign
// removes its assignments and leads, removing a lead removes its history and
// detaches its customers, removing a customer removes its payments, removing a
// profile removes its account and assignments and detaches everything that
// only referenced it.
type Store interface {
	Profiles() Repository[models.Profile]
	Accounts() Repository[models.Account]
	Campaigns() Repository[models.Campaign]
	Assignments() Repository[models.CampaignAssignment]
	Leads() Repository[models.Lead]
	Customers() Repository[models.Customer]
	Payments() Repository[models.Payment]
	History() Repository[models.LeadStatusHistory]

	// Atomic runs fn against a store whose writes are applied together or
	// not at all.
	Atomic(ctx context.Context, fn func(tx Store) error) error
	Close() error
}
