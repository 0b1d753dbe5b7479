package models

import (
	"fmt"
	"sort"
)

type WeightSumError struct {
	BatteryID uint
	Total     int
}

func (e *WeightSumError) Error() string {
	return fmt.Sprintf("battery %d: member weights sum to %d, want %d", e.BatteryID, e.Total, BatteryWeightTotal)
}

// NormalizeIDs returns a sorted copy of ids without duplicates.
func NormalizeIDs(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
