package party

import (
	"testing"

	"dambabgo/models"

	"github.com/stretchr/testify/assert"
)

func TestSortForDisplayOpenBeforeClosedNewestFirst(t *testing.T) {
	parties := []models.Party{
		{Status: models.PartyStatusClosed, CreatedAtMs: 5000, Location: "closed-new"},
		{Status: models.PartyStatusOpen, CreatedAtMs: 1000, Location: "open-old"},
		{Status: models.PartyStatusOpen, CreatedAtMs: 3000, Location: "open-new"},
	}

	sorted := SortForDisplay(parties)

	assert.Equal(t, "open-new", sorted[0].Location)
	assert.Equal(t, "open-old", sorted[1].Location)
	assert.Equal(t, "closed-new", sorted[2].Location)
}

func TestSortForDisplayDoesNotMutateInput(t *testing.T) {
	parties := []models.Party{
		{Status: models.PartyStatusClosed, CreatedAtMs: 2},
		{Status: models.PartyStatusOpen, CreatedAtMs: 1},
	}

	_ = SortForDisplay(parties)

	assert.Equal(t, models.PartyStatusClosed, parties[0].Status)
}
