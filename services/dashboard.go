package services

import (
	"context"

	"metahire/models"
	"metahire/store"
)

type Dashboard struct {
	store store.Store
}

func NewDashboard(st store.Store) *Dashboard {
	return &Dashboard{store: st}
}

// Stats is the dashboard summary. Superadmins get the totals, staff get
// their own counts; the other group of fields is omitted.
type Stats struct {
	TotalStaff     *int64 `json:"total_staff,omitempty"`
	TotalCampaigns *int64 `json:"total_campaigns,omitempty"`
	TotalLeads     *int64 `json:"total_leads,omitempty"`
	MyLeads        *int64 `json:"my_leads,omitempty"`
	MyCampaigns    *int64 `json:"my_campaigns,omitempty"`
	NewLeads       *int64 `json:"new_leads,omitempty"`
}

func (d *Dashboard) Stats(ctx context.Context, caller Caller) (*Stats, error) {
	type counter struct {
		dst   **int64
		count func() (int64, error)
	}
	var stats Stats
	var counters []counter

	switch {
	case caller.IsSuperadmin():
		counters = []counter{
			{&stats.TotalStaff, func() (int64, error) {
				return d.store.Profiles().Count(ctx, store.Where("role", models.RoleStaff))
			}},
			{&stats.TotalCampaigns, func() (int64, error) {
				return d.store.Campaigns().Count(ctx, store.All())
			}},
			{&stats.TotalLeads, func() (int64, error) {
				return d.store.Leads().Count(ctx, store.All())
			}},
		}
	case caller.IsStaff():
		me := caller.ProfileID()
		counters = []counter{
			{&stats.MyLeads, func() (int64, error) {
				return d.store.Leads().Count(ctx, store.Where("assigned_to", me))
			}},
			{&stats.MyCampaigns, func() (int64, error) {
				return d.store.Assignments().Count(ctx, store.Where("staff_id", me))
			}},
			{&stats.NewLeads, func() (int64, error) {
				return d.store.Leads().Count(ctx, store.Where("assigned_to", me).And("status", models.LeadStatusNew))
			}},
		}
	default:
		return nil, Unauthorized("authentication required")
	}

	for _, c := range counters {
		n, err := c.count()
		if err != nil {
			return nil, fromStore("dashboard stats", err)
		}
		*c.dst = &n
	}
	return &stats, nil
}
