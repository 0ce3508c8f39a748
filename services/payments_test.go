package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metahire/models"
)

func TestPaymentValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	customer := env.fx.Customer(env.fx.Lead(nil, nil))

	tests := []struct {
		name string
		in   PaymentInput
	}{
		{"zero amount", PaymentInput{Amount: 0}},
		{"negative amount", PaymentInput{Amount: -5}},
		{"unknown currency", PaymentInput{Amount: 10, Currency: "DOLLARS"}},
		{"unknown status", PaymentInput{Amount: 10, Status: "refunded"}},
		{"below one cent", PaymentInput{Amount: 0.004}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Payments.Create(context.Background(), env.superadmin(), customer.ID, tt.in)
			assert.True(t, IsValidation(err), "%v", err)
		})
	}
}

func TestPaymentDefaultsAndUpdate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	customer := env.fx.Customer(env.fx.Lead(nil, nil))

	payment, err := env.svc.Payments.Create(ctx, env.superadmin(), customer.ID, PaymentInput{Amount: 120.5})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCurrency, payment.Currency)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, env.admin.ID, *payment.CreatedBy)

	updated, err := env.svc.Payments.Update(ctx, env.superadmin(), payment.ID, PaymentInput{Amount: 99, Currency: "eur", Status: "PAID"})
	require.NoError(t, err)
	assert.Equal(t, "EUR", updated.Currency)
	assert.Equal(t, models.PaymentStatusPaid, updated.Status)
	assert.Equal(t, 99.0, updated.Amount)

	_, err = env.svc.Payments.Create(ctx, env.superadmin(), "missing", PaymentInput{Amount: 1})
	assert.True(t, IsNotFound(err))

	require.NoError(t, env.svc.Payments.Delete(ctx, env.superadmin(), payment.ID))
	assert.True(t, IsNotFound(env.svc.Payments.Delete(ctx, env.superadmin(), payment.ID)))
}

func TestPaymentsFollowCustomerVisibility(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	staff := env.fx.Profile(models.RoleStaff)
	mine := env.fx.Customer(env.fx.Lead(nil, staff))
	other := env.fx.Customer(env.fx.Lead(nil, nil))
	hidden := env.fx.Payment(other, 10, models.PaymentStatusPaid)

	_, err := env.svc.Payments.Create(ctx, Staff(staff.ID), mine.ID, PaymentInput{Amount: 5})
	require.NoError(t, err)

	_, err = env.svc.Payments.Create(ctx, Staff(staff.ID), other.ID, PaymentInput{Amount: 5})
	assert.True(t, IsNotFound(err))
	_, err = env.svc.Payments.Update(ctx, Staff(staff.ID), hidden.ID, PaymentInput{Amount: 5})
	assert.True(t, IsNotFound(err))
	_, err = env.svc.Payments.List(ctx, Staff(staff.ID), other.ID)
	assert.True(t, IsNotFound(err))

	list, err := env.svc.Payments.List(ctx, Staff(staff.ID), "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPaymentSummary(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	customer := env.fx.Customer(env.fx.Lead(nil, nil))

	for _, in := range []PaymentInput{
		{Amount: 100, Status: "paid"},
		{Amount: 50},
		{Amount: 25, Status: "overdue"},
		{Amount: 5, Status: "cancelled"},
		{Amount: 10, Currency: "EUR", Status: "paid"},
	} {
		_, err := env.svc.Payments.Create(ctx, env.superadmin(), customer.ID, in)
		require.NoError(t, err)
	}
	env.fx.Payment(env.fx.Customer(nil), 1000, models.PaymentStatusPaid)

	summary, err := env.svc.Payments.Summary(ctx, env.superadmin(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, []CurrencySummary{
		{Currency: "EUR", Total: 10, Paid: 10},
		{Currency: "USD", Total: 180, Paid: 100, Pending: 50},
	}, summary)
}

func TestPaymentSummaryInCents(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	customer := env.fx.Customer(env.fx.Lead(nil, nil))

	for _, amount := range []float64{0.1, 0.2, 19.99, 0.01} {
		_, err := env.svc.Payments.Create(ctx, env.superadmin(), customer.ID, PaymentInput{Amount: amount, Status: "paid"})
		require.NoError(t, err)
	}
	payment, err := env.svc.Payments.Create(ctx, env.superadmin(), customer.ID, PaymentInput{Amount: 12.346})
	require.NoError(t, err)
	assert.Equal(t, 12.35, payment.Amount)

	summary, err := env.svc.Payments.Summary(ctx, env.superadmin(), customer.ID)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, 20.3, summary[0].Paid)
	assert.Equal(t, 12.35, summary[0].Pending)
	assert.Equal(t, 32.65, summary[0].Total)
}
