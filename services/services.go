// Package services holds the CRM rules: who sees what, how leads move
// through the pipeline, and the administration of staff, campaigns,
// customers and payments. It only talks to storage through store.Store.
package services

import (
	"github.com/sirupsen/logrus"

	"metahire/metrics"
	"metahire/session"
	"metahire/store"
)

// Options tunes the services built by New.
type Options struct {
	ImportBatchSize int
	PhoneRegion     string
	Hasher          PasswordHasher
}

// Services is the full set of CRM services sharing one store.
type Services struct {
	Scope     *Scope
	Pipeline  *Pipeline
	Admin     *Admin
	Campaigns *Campaigns
	Leads     *Leads
	Importer  *Importer
	Customers *Customers
	Payments  *Payments
	Dashboard *Dashboard
	Auth      *Auth
}

func New(st store.Store, sessions *session.Manager, m *metrics.Metrics, log logrus.FieldLogger, opts Options) *Services {
	if opts.Hasher.Cost == 0 {
		opts.Hasher = DefaultHasher()
	}
	if opts.PhoneRegion == "" {
		opts.PhoneRegion = "US"
	}

	scope := NewScope(st, log.WithField("component", "scope"))
	return &Services{
		Scope:     scope,
		Pipeline:  NewPipeline(st, scope, m, log.WithField("component", "pipeline")),
		Admin:     NewAdmin(st, opts.Hasher, log.WithField("component", "admin")),
		Campaigns: NewCampaigns(st, scope),
		Leads:     NewLeads(st, scope, opts.PhoneRegion),
		Importer:  NewImporter(st, m, log.WithField("component", "importer"), opts.ImportBatchSize, opts.PhoneRegion),
		Customers: NewCustomers(st, scope, opts.PhoneRegion),
		Payments:  NewPayments(st, scope, m),
		Dashboard: NewDashboard(st),
		Auth:      NewAuth(st, sessions, opts.Hasher, m, log.WithField("component", "auth")),
	}
}
