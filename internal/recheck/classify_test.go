package recheck

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"dog-scout/internal/domain"
)

func ptr[T any](v T) *T {
	return &v
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		passed   bool
		initial  float64
		previous *float64
		current  float64
		want     domain.RecheckStatus
	}{
		{"improving vs previous", true, 70, ptr(72.0), 76, domain.RecheckImproving},
		{"weakening vs previous", true, 70, ptr(72.0), 69, domain.RecheckWeakening},
		{"invalidated ignores trend", false, 70, ptr(72.0), 88, domain.RecheckInvalidated},
		{"no previous uses initial", true, 70, nil, 72, domain.RecheckImproving},
		{"no previous drop", true, 70, nil, 67.5, domain.RecheckWeakening},
		{"flat above initial", true, 70, ptr(71.0), 71.5, domain.RecheckImproving},
		{"flat below initial", true, 70, ptr(69.0), 69.5, domain.RecheckWeakening},
		{"flat equal initial", true, 70, nil, 70, domain.RecheckImproving},
		{"exact threshold up", true, 70, ptr(70.0), 72, domain.RecheckImproving},
		{"exact threshold down", true, 70, ptr(72.0), 70, domain.RecheckWeakening},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.passed, tt.initial, tt.previous, tt.current))
		})
	}
}

func TestComputeDeltas(t *testing.T) {
	d := ComputeDeltas(70, ptr(72.0), 76.456)
	assert.Equal(t, 6.46, d.FromInitial)
	assert.Equal(t, 4.46, d.FromPrevious)

	d = ComputeDeltas(70, nil, 65)
	assert.Equal(t, -5.0, d.FromInitial)
	assert.Equal(t, -5.0, d.FromPrevious)
}

func TestTruncateError(t *testing.T) {
	assert.Equal(t, "boom", TruncateError("boom"))

	long := strings.Repeat("x", 600)
	assert.Len(t, TruncateError(long), MaxErrorLen)

	multi := strings.Repeat("x", 499) + "é" + strings.Repeat("y", 10)
	got := TruncateError(multi)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, 499)
}
