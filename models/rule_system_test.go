package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRuleSystem(t *testing.T) {
	tests := []struct {
		in   string
		want RuleSystem
	}{
		{"0", DnD2024},
		{"1", DnD5},
		{"dnd5", DnD5},
		{"Daggerheart", Daggerheart},
		{"ironkingdoms", IronKingdoms},
		{"ReinosDeFerro", IronKingdoms},
	}
	for _, tt := range tests {
		got, err := ParseRuleSystem(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseRuleSystem("7")
	assert.Error(t, err)
	_, err = ParseRuleSystem("pathfinder")
	assert.Error(t, err)
}

func TestRuleSystemJSON(t *testing.T) {
	var req SearchRequest
	require.NoError(t, json.Unmarshal([]byte(`{"query":"sleep","system":1}`), &req))
	assert.Equal(t, DnD5, req.System)

	require.NoError(t, json.Unmarshal([]byte(`{"query":"sleep","system":"daggerheart"}`), &req))
	assert.Equal(t, Daggerheart, req.System)

	assert.Error(t, json.Unmarshal([]byte(`{"system":"gurps"}`), &req))

	out, err := json.Marshal(SearchResponse{System: IronKingdoms, Passages: []string{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"system":"IronKingdoms","passages":[]}`, string(out))
}

func TestWordMaxFontSize(t *testing.T) {
	assert.Equal(t, 18.0, Word{FontSizes: []float64{10, 18, 12}}.MaxFontSize())
	assert.Equal(t, 0.0, Word{}.MaxFontSize())
	assert.Equal(t, "unknown", Unknown.String())
}
