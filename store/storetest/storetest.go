// Package storetest holds a conformance suite every store.Store backend must
// pass, plus fixture builders shared by the service tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metahire/models"
	"metahire/store"
)

// Fixtures creates rows with fake but valid data.
type Fixtures struct {
	T     testing.TB
	Store store.Store
}

func strPtr(s string) *string { return &s }

func (f Fixtures) Profile(role models.Role) *models.Profile {
	p := &models.Profile{
		Email:    gofakeit.Email(),
		FullName: strPtr(gofakeit.Name()),
		Role:     role,
	}
	require.NoError(f.T, f.Store.Profiles().Insert(context.Background(), p))
	return p
}

func (f Fixtures) Campaign(createdBy *models.Profile) *models.Campaign {
	c := &models.Campaign{
		Name:        gofakeit.BuzzWord() + " " + gofakeit.BS(),
		Description: strPtr(gofakeit.Sentence(8)),
	}
	if createdBy != nil {
		c.CreatedBy = &createdBy.ID
	}
	require.NoError(f.T, f.Store.Campaigns().Insert(context.Background(), c))
	return c
}

func (f Fixtures) Assign(campaign *models.Campaign, staff *models.Profile) *models.CampaignAssignment {
	a := &models.CampaignAssignment{CampaignID: campaign.ID, StaffID: staff.ID}
	require.NoError(f.T, f.Store.Assignments().Insert(context.Background(), a))
	return a
}

// Lead inserts a lead; campaign and assignee may be nil.
func (f Fixtures) Lead(campaign *models.Campaign, assignee *models.Profile) *models.Lead {
	l := &models.Lead{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     strPtr(gofakeit.Email()),
		Phone:     strPtr(gofakeit.Phone()),
		Company:   strPtr(gofakeit.Company()),
		Position:  strPtr(gofakeit.JobTitle()),
		Notes:     strPtr(gofakeit.Sentence(5)),
	}
	if campaign != nil {
		l.CampaignID = &campaign.ID
	}
	if assignee != nil {
		l.AssignedTo = &assignee.ID
	}
	require.NoError(f.T, f.Store.Leads().Insert(context.Background(), l))
	return l
}

// Customer inserts a customer converted from lead.
func (f Fixtures) Customer(lead *models.Lead) *models.Customer {
	c := &models.Customer{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     strPtr(gofakeit.Email()),
	}
	if lead != nil {
		c.LeadID = &lead.ID
		c.FirstName, c.LastName = lead.FirstName, lead.LastName
	}
	require.NoError(f.T, f.Store.Customers().Insert(context.Background(), c))
	return c
}

func (f Fixtures) Payment(customer *models.Customer, amount float64, status models.PaymentStatus) *models.Payment {
	p := &models.Payment{CustomerID: customer.ID, Amount: amount, Status: status}
	require.NoError(f.T, f.Store.Payments().Insert(context.Background(), p))
	return p
}

// Run executes the conformance suite against stores built by open.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"insert assigns ids and defaults", testInsertDefaults},
		{"find by id", testFindByID},
		{"find where", testFindWhere},
		{"empty in matches nothing", testEmptyIn},
		{"unknown column", testUnknownColumn},
		{"unique email", testUniqueEmail},
		{"unique assignment pair", testUniqueAssignment},
		{"dangling reference", testDanglingReference},
		{"update", testUpdate},
		{"update where", testUpdateWhere},
		{"delete campaign cascades", testDeleteCampaignCascades},
		{"delete lead detaches customers", testDeleteLeadDetachesCustomers},
		{"delete customer cascades payments", testDeleteCustomerCascadesPayments},
		{"delete profile", testDeleteProfile},
		{"atomic rollback", testAtomicRollback},
		{"atomic commit", testAtomicCommit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

func testInsertDefaults(t *testing.T, s store.Store) {
	fx := Fixtures{T: t, Store: s}
	lead := fx.Lead(nil, nil)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.False(t, lead.CreatedAt.IsZero())

	c := fx.Campaign(nil)
	assert.Equal(t, models.CampaignStatusActive, c.Status)

	p := fx.Payment(fx.Customer(lead), 10, "")
	assert.Equal(t, models.DefaultCurrency, p.Currency)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
}

func testFindByID(t *testing.T, s store.Store) {
	ctx := context.Background()
	fx := Fixtures{T: t, Store: s}
	lead := fx.Lead(nil, nil)

	got, err := s.Leads().FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.FirstName, got.FirstName)
	assert.Equal(t, *lead.Email, *got.Email)
	assert.Nil(t, got.CampaignID)

	_, err = s.Leads().FindByID(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func testFindWhere(t *testing.T, s store.Store) {
	ctx := context.Background()
	fx := Fixtures{T: t, Store: s}
	staff := fx.Profile(models.RoleStaff)
	c := fx.Campaign(nil)
	mine := fx.Lead(c, staff)
	other := fx.Lead(c, nil)
	fx.Lead(nil, nil)

	rows, err := s.Leads().FindWhere(ctx, store.Where("assigned_to", staff.ID))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mine.ID, rows[0].ID)

	rows, err = s.Leads().FindWhere(ctx, store.Where("campaign_id", c.ID).AndNull("assigned_to"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, other.ID, rows[0].ID)

	rows, err = s.Leads().FindWhere(ctx, store.In("id", []string{mine.ID, other.ID}).Order("first_name", false))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.Leads().FindWhere(ctx, store.Where("status", models.LeadStatusNew).Take(2))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	n, err := s.Leads().Count(ctx, store.Where("status", models.LeadStatusNew))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func testEmptyIn(t *testing.T, s store.Store) {
	ctx := context.Background()
	fx := Fixtures{T: t, Store: s}
	fx.Lead(nil, nil)

	rows, err := s.Leads().FindWhere(ctx, store.In("campaign_id", nil))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func testUnknownColumn(t *testing.T, s store.Store) {
	_, err := s.Leads().FindWhere(context.Background(), store.Where("nope; drop table leads", 1))
	assert.True(t, errors.Is(err, store.ErrUnknownColumn))
}

func testUniqueEmail(t *testing.T, s store.Store) {
	ctx := context.Background()
	fx := Fixtures{T: t, Store: s}
	p := fx.Profile(models.RoleStaff)

	err := s.Profiles().Insert(ctx, &models.Profile{Email: p.Email, Role: models.RoleStaff})
	assert.True(t, errors.Is(err, store.ErrConflict), "got %v", err)
}

func testUniqueAssignment(t *testing.T, s store.Store) {
	ctx := context.Background()
	fx := Fixtures{T: t, Store: s}
	staff := fx.Profile(models.RoleStaff)
	c := fx.Campaign(nil)
	fx.Assign(c, staff)

	err := s.Assignments().Insert(ctx, &models.CampaignAssignment{CampaignID: c.ID, StaffID: staff.ID})
	assert.True(t, errors.Is(err, store.ErrConflict), "got %v", err)
}

func testDanglingReference(t *testing.T, s store.Store) {
	missing := "00000000-0000-0000-0000-000000000000"
	err := s.Payments().Insert(context.Background(), &models.Payment{CustomerID: missing, Amount: 1})
	assert.True(t, errors.Is(err, store.ErrReference), "got %v", err)
}

func testUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	fx := Fixtures{T: t, Store: s}
	lead := fx.Lead(nil, nil)

	lead.Status = models.LeadStatusQualified
	lead.Company = nil
	require.NoError(t, s.Leads().Update(ctx, lead))

	got, err := s.Leads().FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusQualified, got.Status)
	assert.Nil(t, got.Company)

	ghost := *lead
	ghost.ID = "11111111-1111-1111-1111-111111111111"
	assert.True(t, errors.Is(s.Leads().Update(ctx, &ghost), store.ErrNotFound))
}

func testUpdateWhere(t *testing.T, s store.Store) {
	ctx := context.Background()
	fx := Fixtures{T: t, Store: s}
	staff := fx.Profile(models.RoleStaff)
	a, b := fx.Lead(nil, nil), fx.Lead(nil, nil)
	untouched := fx.Lead(nil, nil)

	n, err := s.Leads().UpdateWhere(ctx, store.In("id", []string{a.ID, b.ID}), map[string]interface{}{"assigned_to": staff.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := s.Leads().FindWhere(ctx, store.Where("assigned_to", staff.ID))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	got, err := s.Leads().FindByID(ctx, untouched.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTo)
}

func testDeleteCampaignCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	fx := Fixtures{T: t, Store: s}
	staff := fx.Profile(models.RoleStaff)
	c := fx.Campaign(nil)
	fx.Assign(c, staff)
	lead := fx.Lead(c, staff)
	require.NoError(t, s.History().Insert(ctx, &models.LeadStatusHistory{LeadID: lead.ID, NewStatus: models.LeadStatusNew}))

	n, err := s.Campaigns().Delete(ctx, store.Where("id", c.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assignments, err := s.Assignments().Count(ctx, store.Where("campaign_id", c.ID))
	require.NoError(t, err)
	assert.Zero(t, assignments)

	_, err = s.Leads().FindByID(ctx, lead.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	history, err := s.History().Count(ctx, store.Where("lead_id", lead.ID))
	require.NoError(t, err)
	assert.Zero(t, history)
}

func testDeleteLeadDetachesCustomers(t *testing.T, s store.Store) {
	ctx := context.Background()
	fx := Fixtures{T: t, Store: s}
	lead := fx.Lead(nil, nil)
	customer := fx.Customer(lead)

	_, err := s.Leads().Delete(ctx, store.Where("id", lead.ID))
	require.NoError(t, err)

	got, err := s.Customers().FindByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LeadID)
}

func testDeleteCustomerCascadesPayments(t *testing.T, s store.Store) {
	ctx := context.Background()
	fx := Fixtures{T: t, Store: s}
	customer := fx.Customer(nil)
	fx.Payment(customer, 100, models.PaymentStatusPaid)
	fx.Payment(customer, 50, models.PaymentStatusPending)

	_, err := s.Customers().Delete(ctx, store.Where("id", customer.ID))
	require.NoError(t, err)

	n, err := s.Payments().Count(ctx, store.Where("customer_id", customer.ID))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testDeleteProfile(t *testing.T, s store.Store) {
	ctx := context.Background()
	fx := Fixtures{T: t, Store: s}
	staff := fx.Profile(models.RoleStaff)
	require.NoError(t, s.Accounts().Insert(ctx, &models.Account{ProfileID: staff.ID, PasswordHash: "x"}))
	c := fx.Campaign(staff)
	fx.Assign(c, staff)
	lead := fx.Lead(nil, staff)

	_, err := s.Profiles().Delete(ctx, store.Where("id", staff.ID))
	require.NoError(t, err)

	_, err = s.Accounts().FindByID(ctx, staff.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	n, err := s.Assignments().Count(ctx, store.Where("staff_id", staff.ID))
	require.NoError(t, err)
	assert.Zero(t, n)

	gotLead, err := s.Leads().FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Nil(t, gotLead.AssignedTo)

	gotCampaign, err := s.Campaigns().FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, gotCampaign.CreatedBy)
}

func testAtomicRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	fx := Fixtures{T: t, Store: s}
	lead := fx.Lead(nil, nil)
	boom := errors.New("boom")

	err := s.Atomic(ctx, func(tx store.Store) error {
		lead.Status = models.LeadStatusProposal
		if err := tx.Leads().Update(ctx, lead); err != nil {
			return err
		}
		if err := tx.History().Insert(ctx, &models.LeadStatusHistory{LeadID: lead.ID, NewStatus: models.LeadStatusProposal}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Leads().FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusNew, got.Status)

	n, err := s.History().Count(ctx, store.Where("lead_id", lead.ID))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testAtomicCommit(t *testing.T, s store.Store) {
	ctx := context.Background()

	var ids []string
	err := s.Atomic(ctx, func(tx store.Store) error {
		rows := []*models.Lead{{FirstName: "Ada", LastName: "L"}, {FirstName: "Alan", LastName: "T"}}
		if err := tx.Leads().Insert(ctx, rows...); err != nil {
			return err
		}
		ids = []string{rows[0].ID, rows[1].ID}
		return nil
	})
	require.NoError(t, err)

	rows, err := s.Leads().FindWhere(ctx, store.In("id", ids))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
