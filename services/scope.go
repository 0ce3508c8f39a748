package services

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"metahire/models"
	"metahire/store"
)

// Scope computes what a caller may see. Superadmins see every row; staff see
// the campaigns assigned to them, the leads assigned to them or belonging to
// those campaigns, the customers converted from leads assigned to them and
// the payments of those customers.
//
// Every resolver fails closed: when the store errors the result is empty and
// the error is returned alongside it.
type Scope struct {
	store store.Store
	log   logrus.FieldLogger
}

func NewScope(st store.Store, log logrus.FieldLogger) *Scope {
	return &Scope{store: st, log: log}
}

// LeadQuery narrows a lead listing. Zero fields do not filter.
type LeadQuery struct {
	Status     models.LeadStatus
	CampaignID string
	AssignedTo string
	Search     string
}

func (q LeadQuery) filter() store.Filter {
	f := store.All()
	if q.Status != "" {
		f = f.And("status", q.Status)
	}
	if q.CampaignID != "" {
		f = f.And("campaign_id", q.CampaignID)
	}
	if q.AssignedTo != "" {
		f = f.And("assigned_to", q.AssignedTo)
	}
	return f.Order("created_at", true)
}

func (q LeadQuery) matches(l *models.Lead) bool {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	if term == "" {
		return true
	}
	for _, v := range []string{l.FirstName, l.LastName, deref(l.Email), deref(l.Company), deref(l.Phone)} {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

func (s *Scope) failClosed(what string, caller Caller, err error) error {
	s.log.WithFields(logrus.Fields{
		"scope":      what,
		"profile_id": caller.ProfileID(),
		"error":      err.Error(),
	}).Warn("visibility resolution failed, returning empty set")
	return fromStore(what, err)
}

// assignedCampaignIDs lists the campaigns a staff member is assigned to.
func (s *Scope) assignedCampaignIDs(ctx context.Context, staffID string) ([]string, error) {
	rows, err := s.store.Assignments().FindWhere(ctx, store.Where("staff_id", staffID))
	if err != nil {
		return nil, err
	}
	return store.IDs(rows, func(a *models.CampaignAssignment) string { return a.CampaignID }), nil
}

func (s *Scope) VisibleCampaigns(ctx context.Context, caller Caller) ([]models.Campaign, error) {
	switch {
	case caller.IsSuperadmin():
		rows, err := s.store.Campaigns().FindWhere(ctx, store.All().Order("created_at", true))
		if err != nil {
			return []models.Campaign{}, s.failClosed("campaigns", caller, err)
		}
		return rows, nil
	case caller.IsStaff():
		ids, err := s.assignedCampaignIDs(ctx, caller.ProfileID())
		if err != nil {
			return []models.Campaign{}, s.failClosed("campaigns", caller, err)
		}
		rows, err := s.store.Campaigns().FindWhere(ctx, store.In("id", ids).Order("created_at", true))
		if err != nil {
			return []models.Campaign{}, s.failClosed("campaigns", caller, err)
		}
		return rows, nil
	}
	return []models.Campaign{}, nil
}

func (s *Scope) VisibleLeads(ctx context.Context, caller Caller, q LeadQuery) ([]models.Lead, error) {
	var rows []models.Lead
	switch {
	case caller.IsSuperadmin():
		all, err := s.store.Leads().FindWhere(ctx, q.filter())
		if err != nil {
			return []models.Lead{}, s.failClosed("leads", caller, err)
		}
		rows = all
	case caller.IsStaff():
		union, err := s.staffLeads(ctx, caller, q)
		if err != nil {
			return []models.Lead{}, s.failClosed("leads", caller, err)
		}
		rows = union
	default:
		return []models.Lead{}, nil
	}

	out := rows[:0]
	for i := range rows {
		if q.matches(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

// staffLeads is the union of leads assigned to the caller and leads in the
// caller's campaigns, newest first.
func (s *Scope) staffLeads(ctx context.Context, caller Caller, q LeadQuery) ([]models.Lead, error) {
	base := q.filter()

	assigned, err := s.store.Leads().FindWhere(ctx, base.And("assigned_to", caller.ProfileID()))
	if err != nil {
		return nil, err
	}
	campaignIDs, err := s.assignedCampaignIDs(ctx, caller.ProfileID())
	if err != nil {
		return nil, err
	}
	inCampaigns, err := s.store.Leads().FindWhere(ctx, base.AndIn("campaign_id", campaignIDs))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(assigned)+len(inCampaigns))
	union := make([]models.Lead, 0, len(assigned)+len(inCampaigns))
	for _, batch := range [][]models.Lead{assigned, inCampaigns} {
		for _, l := range batch {
			if _, ok := seen[l.ID]; ok {
				continue
			}
			seen[l.ID] = struct{}{}
			union = append(union, l)
		}
	}
	sort.SliceStable(union, func(i, j int) bool {
		return union[i].CreatedAt.After(union[j].CreatedAt)
	})
	return union, nil
}

func (s *Scope) VisibleCustomers(ctx context.Context, caller Caller) ([]models.Customer, error) {
	switch {
	case caller.IsSuperadmin():
		rows, err := s.store.Customers().FindWhere(ctx, store.All().Order("created_at", true))
		if err != nil {
			return []models.Customer{}, s.failClosed("customers", caller, err)
		}
		return rows, nil
	case caller.IsStaff():
		ids, err := s.ownLeadIDs(ctx, caller)
		if err != nil {
			return []models.Customer{}, s.failClosed("customers", caller, err)
		}
		rows, err := s.store.Customers().FindWhere(ctx, store.In("lead_id", ids).Order("created_at", true))
		if err != nil {
			return []models.Customer{}, s.failClosed("customers", caller, err)
		}
		return rows, nil
	}
	return []models.Customer{}, nil
}

// ownLeadIDs lists leads directly assigned to the caller. Campaign
// membership deliberately does not count here.
func (s *Scope) ownLeadIDs(ctx context.Context, caller Caller) ([]string, error) {
	leads, err := s.store.Leads().FindWhere(ctx, store.Where("assigned_to", caller.ProfileID()))
	if err != nil {
		return nil, err
	}
	return store.IDs(leads, func(l *models.Lead) string { return l.ID }), nil
}

// VisiblePayments lists payments of visible customers, optionally for one
// customer only.
func (s *Scope) VisiblePayments(ctx context.Context, caller Caller, customerID string) ([]models.Payment, error) {
	var f store.Filter
	switch {
	case caller.IsSuperadmin():
		f = store.All()
	case caller.IsStaff():
		customers, err := s.VisibleCustomers(ctx, caller)
		if err != nil {
			return []models.Payment{}, err
		}
		f = store.In("customer_id", store.IDs(customers, func(c *models.Customer) string { return c.ID }))
	default:
		return []models.Payment{}, nil
	}
	if customerID != "" {
		f = f.And("customer_id", customerID)
	}

	rows, err := s.store.Payments().FindWhere(ctx, f.Order("created_at", true))
	if err != nil {
		return []models.Payment{}, s.failClosed("payments", caller, err)
	}
	return rows, nil
}

func (s *Scope) CanSeeCampaign(ctx context.Context, caller Caller, campaignID string) (bool, error) {
	switch {
	case caller.IsSuperadmin():
		return true, nil
	case caller.IsStaff():
		n, err := s.store.Assignments().Count(ctx, store.Where("campaign_id", campaignID).And("staff_id", caller.ProfileID()))
		if err != nil {
			return false, s.failClosed("campaigns", caller, err)
		}
		return n > 0, nil
	}
	return false, nil
}

func (s *Scope) CanSeeLead(ctx context.Context, caller Caller, lead *models.Lead) (bool, error) {
	switch {
	case caller.IsSuperadmin():
		return true, nil
	case caller.IsStaff():
		if lead.AssignedTo != nil && *lead.AssignedTo == caller.ProfileID() {
			return true, nil
		}
		if lead.CampaignID == nil {
			return false, nil
		}
		return s.CanSeeCampaign(ctx, caller, *lead.CampaignID)
	}
	return false, nil
}

func (s *Scope) CanSeeCustomer(ctx context.Context, caller Caller, customer *models.Customer) (bool, error) {
	switch {
	case caller.IsSuperadmin():
		return true, nil
	case caller.IsStaff():
		if customer.LeadID == nil {
			return false, nil
		}
		n, err := s.store.Leads().Count(ctx, store.Where("id", *customer.LeadID).And("assigned_to", caller.ProfileID()))
		if err != nil {
			return false, s.failClosed("customers", caller, err)
		}
		return n > 0, nil
	}
	return false, nil
}

// lead loads a lead the caller may see. Invisible leads report not found.
func (s *Scope) lead(ctx context.Context, caller Caller, id string) (*models.Lead, error) {
	lead, err := s.store.Leads().FindByID(ctx, id)
	if err != nil {
		return nil, fromStore("lead", err)
	}
	ok, err := s.CanSeeLead(ctx, caller, lead)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFound("lead")
	}
	return lead, nil
}

func (s *Scope) customer(ctx context.Context, caller Caller, id string) (*models.Customer, error) {
	customer, err := s.store.Customers().FindByID(ctx, id)
	if err != nil {
		return nil, fromStore("customer", err)
	}
	ok, err := s.CanSeeCustomer(ctx, caller, customer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFound("customer")
	}
	return customer, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
