package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metahire/models"
	"metahire/store"
)

// A staff member sees an unassigned lead through campaign membership and may
// close it, but the resulting customer stays invisible to them because the
// lead was never assigned to them directly.
func TestCampaignLeadConversionScenario(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	c1 := env.fx.Campaign(env.admin)
	s1, err := env.svc.Admin.AddStaff(ctx, env.superadmin(), newStaffAccount())
	require.NoError(t, err)
	_, err = env.svc.Admin.AssignCampaign(ctx, env.superadmin(), s1.ID, c1.ID)
	require.NoError(t, err)

	l1 := env.fx.Lead(c1, nil)
	require.Equal(t, models.LeadStatusNew, l1.Status)
	require.Nil(t, l1.AssignedTo)

	visible, err := env.svc.Scope.VisibleLeads(ctx, Staff(s1.ID), LeadQuery{})
	require.NoError(t, err)
	assert.Contains(t, leadIDs(visible), l1.ID)

	res, err := env.svc.Pipeline.Transition(ctx, Staff(s1.ID), l1.ID, models.LeadStatusClosedWon)
	require.NoError(t, err)
	require.NotNil(t, res.Customer)
	assert.Equal(t, l1.ID, *res.Customer.LeadID)

	history, err := env.store.History().FindWhere(ctx, store.Where("lead_id", l1.ID))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.LeadStatusNew, *history[0].OldStatus)
	assert.Equal(t, models.LeadStatusClosedWon, history[0].NewStatus)
	assert.Equal(t, s1.ID, *history[0].ChangedBy)

	customers, err := env.svc.Scope.VisibleCustomers(ctx, Staff(s1.ID))
	require.NoError(t, err)
	assert.NotContains(t, customerIDs(customers), res.Customer.ID)

	all, err := env.svc.Scope.VisibleCustomers(ctx, env.superadmin())
	require.NoError(t, err)
	assert.Contains(t, customerIDs(all), res.Customer.ID)
}
