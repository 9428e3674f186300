package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildActs_TimingInvariant(t *testing.T) {
	entries := []FourActEntry{
		{Title: "Arrival"}, {Title: "Family"}, {Title: "Finance"}, {Title: "Daily Life"},
	}
	acts := BuildActs(entries)
	for i, a := range acts {
		assert.Equal(t, float64(i*3), a.StartS)
		assert.Equal(t, float64((i+1)*3), a.EndS)
	}
	assert.Equal(t, float64(4*3), acts[len(acts)-1].EndS)
}

func TestActMidpoint(t *testing.T) {
	assert.Equal(t, 1.5, ActMidpoint(0))
	assert.Equal(t, 4.5, ActMidpoint(1))
	assert.Equal(t, 10.5, ActMidpoint(3))
}

func TestTruncatePrompt(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, TruncatePrompt(short, 2000))

	long := make([]rune, 2500)
	for i := range long {
		long[i] = 'x'
	}
	got := TruncatePrompt(string(long), 2000)
	assert.Equal(t, 2000, len([]rune(got)))
}
