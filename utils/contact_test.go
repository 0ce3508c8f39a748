package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		region string
		want   *string
	}{
		{"national number", "(415) 555-2671", "US", Pointer("+14155552671")},
		{"international number ignores region", "+44 20 7946 0958", "US", Pointer("+442079460958")},
		{"lowercase region", "415 555 2671", "us", Pointer("+14155552671")},
		{"garbage kept as typed", "  call reception ", "US", Pointer("call reception")},
		{"empty", "   ", "US", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw, tt.region))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Jane.Doe@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", *got)

	got, err = NormalizeEmail("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = NormalizeEmail("not-an-email")
	assert.Error(t, err)
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, OptionalString("  "))
	assert.Equal(t, "x", *OptionalString(" x "))
	assert.Equal(t, "", Deref[string](nil))
}
