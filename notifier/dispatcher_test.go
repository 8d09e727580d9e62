package notifier

import (
	"testing"
	"time"

	"dambabgo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allEnabled() Prefs   { return Prefs{Smoke: true, Meal: true, Coffee: true} }
func alwaysGranted() bool { return true }

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func newTestDispatcher(uid string, prefs func() Prefs, granted func() bool, at time.Time) *Dispatcher {
	d := New(uid, prefs, granted)
	d.now = fixedClock(at)
	return d
}

func freshParty(id uint, partyType, creator string, at time.Time, age time.Duration) models.Party {
	p := models.Party{
		Type:        partyType,
		Status:      models.PartyStatusOpen,
		CreatorID:   creator,
		CreatorName: "김민수",
		Location:    "1층 로비",
		CreatedAtMs: at.Add(-age).UnixMilli(),
	}
	p.ID = id
	return p
}

func TestInitialLoadSuppressesNotifications(t *testing.T) {
	now := time.Now()
	d := newTestDispatcher("me", allEnabled, alwaysGranted, now)

	// Pre-existing parties, one of them brand new: still nothing on the
	// first non-empty snapshot.
	events := d.Observe([]models.Party{
		freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour),
		freshParty(2, models.PartyTypeCoffee, "other", now, time.Second),
	})
	assert.Empty(t, events)
}

func TestNewPartyAfterInitialLoadNotifies(t *testing.T) {
	now := time.Now()
	d := newTestDispatcher("me", allEnabled, alwaysGranted, now)

	_ = d.Observe([]models.Party{freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour)})

	events := d.Observe([]models.Party{
		freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour),
		freshParty(2, models.PartyTypeSmoke, "other", now, 10*time.Second),
	})
	require.Len(t, events, 1)
	assert.Equal(t, "담배 한 대 고?", events[0].Title)
	assert.Equal(t, "1층 로비에서 김민수님이 모여요!", events[0].Body)
	assert.Equal(t, "party-2", events[0].Tag)
	assert.True(t, events[0].RequireInteraction)
}

func TestSamePartyNotifiesAtMostOnce(t *testing.T) {
	now := time.Now()
	d := newTestDispatcher("me", allEnabled, alwaysGranted, now)

	_ = d.Observe([]models.Party{freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour)})

	snapshot := []models.Party{
		freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour),
		freshParty(2, models.PartyTypeMeal, "other", now, 5*time.Second),
	}
	first := d.Observe(snapshot)
	second := d.Observe(snapshot)

	assert.Len(t, first, 1)
	assert.Empty(t, second)
}

func TestOwnPartyDoesNotNotify(t *testing.T) {
	now := time.Now()
	d := newTestDispatcher("me", allEnabled, alwaysGranted, now)

	_ = d.Observe([]models.Party{freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour)})

	events := d.Observe([]models.Party{
		freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour),
		freshParty(2, models.PartyTypeCoffee, "me", now, time.Second),
	})
	assert.Empty(t, events)
}

func TestRecencyWindow(t *testing.T) {
	now := time.Now()
	d := newTestDispatcher("me", allEnabled, alwaysGranted, now)

	_ = d.Observe([]models.Party{freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour)})

	// 70 seconds old: outside the window, silent.
	events := d.Observe([]models.Party{
		freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour),
		freshParty(2, models.PartyTypeCoffee, "other", now, 70*time.Second),
	})
	assert.Empty(t, events)

	// 10 seconds old: inside the window, notifies.
	events = d.Observe([]models.Party{
		freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour),
		freshParty(2, models.PartyTypeCoffee, "other", now, 70*time.Second),
		freshParty(3, models.PartyTypeCoffee, "other", now, 10*time.Second),
	})
	require.Len(t, events, 1)
	assert.Equal(t, "party-3", events[0].Tag)
}

func TestDisabledTypePreferenceSilences(t *testing.T) {
	now := time.Now()
	prefs := func() Prefs { return Prefs{Smoke: false, Meal: true, Coffee: true} }
	d := newTestDispatcher("me", prefs, alwaysGranted, now)

	_ = d.Observe([]models.Party{freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour)})

	events := d.Observe([]models.Party{
		freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour),
		freshParty(2, models.PartyTypeSmoke, "other", now, time.Second),
		freshParty(3, models.PartyTypeMeal, "other", now, time.Second),
	})
	require.Len(t, events, 1)
	assert.Equal(t, "밥 먹으러 고?", events[0].Title)
}

func TestPreferenceChangesApplyToLiveSession(t *testing.T) {
	now := time.Now()
	current := Prefs{Smoke: true, Meal: true, Coffee: true}
	d := newTestDispatcher("me", func() Prefs { return current }, alwaysGranted, now)

	_ = d.Observe([]models.Party{freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour)})

	// Preferences flip after the subscription started; the next evaluation
	// must see the new value.
	current.Coffee = false
	events := d.Observe([]models.Party{
		freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour),
		freshParty(2, models.PartyTypeCoffee, "other", now, time.Second),
	})
	assert.Empty(t, events)
}

func TestWithoutPermissionNothingNotifies(t *testing.T) {
	now := time.Now()
	d := newTestDispatcher("me", allEnabled, func() bool { return false }, now)

	_ = d.Observe([]models.Party{freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour)})

	events := d.Observe([]models.Party{
		freshParty(1, models.PartyTypeCoffee, "other", now, time.Hour),
		freshParty(2, models.PartyTypeCoffee, "other", now, time.Second),
	})
	assert.Empty(t, events)
}

func TestEmptyFirstSnapshotDoesNotConsumeInitialLoad(t *testing.T) {
	now := time.Now()
	d := newTestDispatcher("me", allEnabled, alwaysGranted, now)

	// An empty snapshot leaves the seen set empty, so the next non-empty
	// snapshot still counts as the initial load.
	_ = d.Observe(nil)
	events := d.Observe([]models.Party{
		freshParty(1, models.PartyTypeCoffee, "other", now, time.Second),
	})
	assert.Empty(t, events)
}
