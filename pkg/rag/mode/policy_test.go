package mode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(DefaultPolicies(Models{Textbook: "chat", Detailed: "chat", Advanced: "reasoner"}))
	require.NoError(t, err)
	return table
}

func TestPolicyFor_Defaults(t *testing.T) {
	table := testTable(t)

	tests := []struct {
		mode   Mode
		k      int
		temp   float64
		strict bool
		label  string
		model  string
	}{
		{Textbook, 3, 0.1, true, "textbook_only", "chat"},
		{Detailed, 4, 0.3, false, "detailed_mode", "chat"},
		{Advanced, 2, 0.7, false, "advanced_mode", "reasoner"},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			p, err := table.PolicyFor(tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.k, p.RetrievalCount)
			assert.Equal(t, tt.temp, p.Temperature)
			assert.Equal(t, tt.strict, p.Strict)
			assert.Equal(t, tt.label, p.SourceLabel)
			assert.Equal(t, tt.model, p.ModelID)
		})
	}
}

func TestPolicyFor_UnknownMode(t *testing.T) {
	_, err := testTable(t).PolicyFor(Mode("creative"))

	var unknown *UnknownModeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "creative", unknown.Value)
}

func TestParse(t *testing.T) {
	m, err := Parse(" Textbook ")
	require.NoError(t, err)
	assert.Equal(t, Textbook, m)

	_, err = Parse("expert")
	assert.Error(t, err)
}

func TestNewTable_RejectsInvalidPolicies(t *testing.T) {
	base := DefaultPolicies(Models{Textbook: "a", Detailed: "b", Advanced: "c"})

	negative := append([]Policy(nil), base...)
	negative[1].RetrievalCount = -1
	_, err := NewTable(negative)
	assert.Error(t, err)

	strictAdvanced := append([]Policy(nil), base...)
	strictAdvanced[2].Strict = true
	_, err = NewTable(strictAdvanced)
	assert.Error(t, err)

	_, err = NewTable(base[:2])
	assert.Error(t, err)
}

func TestPolicies_Order(t *testing.T) {
	policies := testTable(t).Policies()
	require.Len(t, policies, 3)
	assert.Equal(t, []Mode{Textbook, Detailed, Advanced}, []Mode{policies[0].Mode, policies[1].Mode, policies[2].Mode})
}
