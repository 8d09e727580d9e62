package party

import (
	"sort"

	"dambabgo/models"
)

// SortForDisplay orders parties OPEN before CLOSED, newest first within each
// status group. It is a pure function of the snapshot and is recomputed on
// every update.
func SortForDisplay(parties []models.Party) []models.Party {
	sorted := make([]models.Party, len(parties))
	copy(sorted, parties)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Status != sorted[j].Status {
			return sorted[i].Status == models.PartyStatusOpen
		}
		return sorted[i].CreatedAtMs > sorted[j].CreatedAtMs
	})
	return sorted
}
