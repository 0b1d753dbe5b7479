package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batteryWithWeights(weights ...int) *Battery {
	b := &Battery{ID: 4}
	for i, w := range weights {
		b.Members = append(b.Members, BatteryTest{BatteryID: 4, TestID: uint(i + 1), Position: i, Weight: w})
	}
	return b
}

func TestBattery_ValidateWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights []int
		wantErr bool
		total   int
	}{
		{name: "exactly 100", weights: []int{40, 35, 25}},
		{name: "single member at 100", weights: []int{100}},
		{name: "under 100", weights: []int{40, 35}, wantErr: true, total: 75},
		{name: "over 100", weights: []int{60, 50}, wantErr: true, total: 110},
		{name: "no members", weights: nil, wantErr: true, total: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := batteryWithWeights(tc.weights...).ValidateWeights()
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}

			var sumErr *WeightSumError
			require.ErrorAs(t, err, &sumErr)
			assert.Equal(t, tc.total, sumErr.Total)
			assert.Equal(t, uint(4), sumErr.BatteryID)
			assert.Contains(t, err.Error(), "want 100")
		})
	}
}

func TestBattery_DurationSec(t *testing.T) {
	tests := []struct {
		name      string
		durations []int
		want      int
	}{
		{name: "sums members", durations: []int{600, 300, 120}, want: 1020},
		{name: "single member", durations: []int{900}, want: 900},
		{name: "no members", durations: nil, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := &Battery{ID: 4}
			for i, d := range tc.durations {
				b.Members = append(b.Members, BatteryTest{TestID: uint(i + 1), Test: Test{ID: uint(i + 1), DurationSec: d}})
			}
			assert.Equal(t, tc.want, b.DurationSec())
		})
	}
}
