package tools

import (
	"context"

	"github.com/benchwise/finsight/core"
)

// SnapshotSource provides the financial snapshot every tool reads from.
type SnapshotSource interface {
	Snapshot(ctx context.Context, userID string, periodDays int) (*core.Snapshot, error)
}

const defaultPeriodDays = 60

// periodOrDefault clamps a tool's period argument to the default window
// when it is missing or nonsensical.
func periodOrDefault(periodDays int) int {
	if periodDays < 1 {
		return defaultPeriodDays
	}
	return periodDays
}
