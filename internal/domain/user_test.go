package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRole_IsValid(t *testing.T) {
	assert.True(t, RoleAdmin.IsValid())
	assert.True(t, RoleEditor.IsValid())
	assert.True(t, RoleViewer.IsValid())
	assert.False(t, UserRole("guest").IsValid())
	assert.False(t, UserRole("Admin").IsValid())
	assert.False(t, UserRole("").IsValid())
}

func TestFormatTimestamp_MatchesISOMillis(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 123456789, time.FixedZone("BRT", -3*3600))

	assert.Equal(t, "2024-03-09T17:05:07.123Z", FormatTimestamp(at))
}

func TestParseTimestamp_RoundTrip(t *testing.T) {
	parsed, err := ParseTimestamp("2024-03-09T17:05:07.123Z")
	require.NoError(t, err)

	assert.Equal(t, "2024-03-09T17:05:07.123Z", FormatTimestamp(parsed))
}

func TestUserPatch_IsEmpty(t *testing.T) {
	name := "X"

	assert.True(t, UserPatch{}.IsEmpty())
	assert.False(t, UserPatch{Name: &name}.IsEmpty())
}
