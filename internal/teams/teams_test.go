package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "Jacksonville Jaguars", want: "Jacksonville Jaguars", ok: true},
		{in: "JAC", want: "Jacksonville Jaguars", ok: true},
		{in: " Jaguars ", want: "Jacksonville Jaguars", ok: true},
		{in: "niners", want: "San Francisco 49ers", ok: true},
		{in: "new york jets", want: "New York Jets", ok: true},
		{in: "London Monarchs", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Normalize(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	full, abbr, ok := Resolve("LVR")

	assert.True(t, ok)
	assert.Equal(t, "Las Vegas Raiders", full)
	assert.Equal(t, "LV", abbr)

	_, _, ok = Resolve("")
	assert.False(t, ok)
}

func TestEveryAliasResolves(t *testing.T) {
	for alias, full := range aliases {
		_, ok := Abbr(full)
		assert.True(t, ok, "alias %s maps to unknown team %s", alias, full)
	}
	assert.Len(t, All(), 32)
}
