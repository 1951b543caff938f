package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
)

func TestRole_CanPrescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role domain.Role
		want bool
	}{
		{domain.RolePatient, false},
		{domain.RoleDoctor, true},
		{domain.RoleProvider, true},
		{domain.Role("observer"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.role.CanPrescribe())
		})
	}
}

func TestRole_PrescriberPresent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role domain.Role
		want bool
	}{
		{domain.RolePatient, true},
		{domain.RoleDoctor, true},
		{domain.RoleProvider, true},
		{domain.Role("observer"), false},
		{domain.Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.role.PrescriberPresent())
		})
	}
}

func TestComprehensionState_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.StateConfusion.Valid())
	assert.True(t, domain.StateUnderstanding.Valid())
	assert.False(t, domain.ComprehensionState("BORED").Valid())
}

func TestConfidence_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.ConfidenceLow.Valid())
	assert.True(t, domain.ConfidenceMedium.Valid())
	assert.True(t, domain.ConfidenceHigh.Valid())
	assert.False(t, domain.Confidence("SHAKY").Valid())
}

func TestNewSessionID(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id := domain.NewSessionID(now)

	require.True(t, strings.HasPrefix(id, "visit-"), "id %q must start with visit-", id)
	parts := strings.SplitN(id, "-", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "1748779200000", parts[1])
	assert.Len(t, parts[2], 8)

	// Two ids generated at the same instant must still differ.
	other := domain.NewSessionID(now)
	assert.NotEqual(t, id, other)
}
