package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusTag(t *testing.T) {
	tests := map[string]Status{
		"Main:Active":    StatusActive,
		"Active":         StatusActive,
		"Due Soon":       StatusActive, // never stored; re-derived on read
		"Main:Repaid":    StatusRepaid,
		"Defaulted":      StatusDefaulted,
		"Main.Defaulted": StatusDefaulted,
	}
	for tag, want := range tests {
		got, err := ParseStatusTag(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, want, got, tag)
	}
	_, err := ParseStatusTag("Pending")
	assert.ErrorIs(t, err, ErrUnknownStatusTag)
}

func TestMapStatusTag(t *testing.T) {
	s, d := MapStatusTag("Pending")
	assert.Equal(t, StatusActive, s)
	assert.True(t, d)

	s, d = MapStatusTag("Main:Repaid")
	assert.Equal(t, StatusRepaid, s)
	assert.False(t, d)
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusRepaid.Terminal())
	assert.True(t, StatusDefaulted.Terminal())
	assert.False(t, StatusActive.Terminal())
	assert.False(t, StatusDueSoon.Terminal())

	assert.True(t, StatusActive.Outstanding())
	assert.True(t, StatusDueSoon.Outstanding())
	assert.False(t, StatusRepaid.Outstanding())

	assert.Equal(t, "Due Soon", StatusDueSoon.Label())
	assert.False(t, Status("x").Valid())
}
