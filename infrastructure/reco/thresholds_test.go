package reco

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdsFor(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want thresholds
	}{
		{"tiny catalog keeps everything", 10, thresholds{perSlot: 10, minPerSlot: 1, minTotal: 5}},
		{"tiny floor on minTotal", 4, thresholds{perSlot: 4, minPerSlot: 1, minTotal: 3}},
		{"small catalog", 50, thresholds{perSlot: 10, minPerSlot: 3, minTotal: 10}},
		{"medium catalog", 200, thresholds{perSlot: 15, minPerSlot: 3, minTotal: 20}},
		{"large catalog", 1000, thresholds{perSlot: 30, minPerSlot: 10, minTotal: 66}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, thresholdsFor(tt.n))
		})
	}
}

func TestThresholdsSane(t *testing.T) {
	for _, n := range []int{1, 19, 20, 99, 100, 499, 500, 5000} {
		th := thresholdsFor(n)
		assert.Positive(t, th.minPerSlot, "n=%d", n)
		assert.GreaterOrEqual(t, th.perSlot, th.minPerSlot, "n=%d", n)
		assert.GreaterOrEqual(t, th.minTotal, th.minPerSlot, "n=%d", n)
	}
}
