package menu

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/korjavin/mealwatch/pkg/models"
)

// Changed reports whether cur differs from the previously stored snapshot.
// A nil previous snapshot always counts as a change. Nil and empty item
// lists are equal since they serialize the same way once stored.
func Changed(prev *models.Snapshot, cur models.Snapshot) bool {
	if prev == nil {
		return true
	}
	return !cmp.Equal(*prev, cur, cmpopts.EquateEmpty())
}

// Diff returns a human-readable difference, empty when the snapshots are equal
func Diff(prev *models.Snapshot, cur models.Snapshot) string {
	if prev == nil {
		return cmp.Diff(models.Snapshot{}, cur, cmpopts.EquateEmpty())
	}
	return cmp.Diff(*prev, cur, cmpopts.EquateEmpty())
}
