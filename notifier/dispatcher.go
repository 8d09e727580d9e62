// Package notifier derives "new, relevant, not mine, recent" alert events
// from successive party snapshots. One Dispatcher exists per client session
// and notifies at most once per party.
package notifier

import (
	"fmt"
	"time"

	"dambabgo/models"
)

// RecencyWindow is how fresh a newly-observed party must be to alert. Late
// subscriptions surface old parties as "unseen"; this keeps them quiet.
const RecencyWindow = 60 * time.Second

// Prefs is the user's per-party-type alert preference at evaluation time.
type Prefs struct {
	Smoke  bool
	Meal   bool
	Coffee bool
}

// Event is one alert ready for display. Tag carries the party id so
// re-delivery replaces the prior notification instead of stacking.
type Event struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	Icon               string `json:"icon"`
	Tag                string `json:"tag"`
	RequireInteraction bool   `json:"require_interaction"`
}

// Dispatcher tracks which party ids this session has seen. Preferences and
// the client's notification-permission state are read through funcs at
// evaluation time so a long-lived session always sees the latest values.
// The seen set lives for the session only; a new session starts empty and
// re-suppresses via the initial-load rule.
type Dispatcher struct {
	userUID string
	prefs   func() Prefs
	granted func() bool
	now     func() time.Time
	seen    map[uint]struct{}
}

func New(userUID string, prefs func() Prefs, granted func() bool) *Dispatcher {
	return &Dispatcher{
		userUID: userUID,
		prefs:   prefs,
		granted: granted,
		now:     time.Now,
		seen:    make(map[uint]struct{}),
	}
}

// Observe folds one snapshot into the seen set and returns the alerts it
// produced. The first non-empty snapshot is treated as the initial load:
// every id is absorbed and nothing is emitted.
func (d *Dispatcher) Observe(parties []models.Party) []Event {
	if len(d.seen) == 0 && len(parties) > 0 {
		for _, p := range parties {
			d.seen[p.ID] = struct{}{}
		}
		return nil
	}

	var events []Event
	for _, p := range parties {
		if _, ok := d.seen[p.ID]; ok {
			continue
		}
		d.seen[p.ID] = struct{}{}

		if p.CreatorID == d.userUID {
			continue
		}
		if d.now().UnixMilli()-p.CreatedAtMs >= RecencyWindow.Milliseconds() {
			continue
		}
		if !d.granted() {
			continue
		}
		if !d.typeEnabled(p.Type) {
			continue
		}

		events = append(events, Event{
			Title:              titleFor(p.Type),
			Body:               fmt.Sprintf("%s에서 %s님이 모여요!", p.Location, p.CreatorName),
			Icon:               "/pwa-192x192.png",
			Tag:                fmt.Sprintf("party-%d", p.ID),
			RequireInteraction: true,
		})
	}
	return events
}

func (d *Dispatcher) typeEnabled(partyType string) bool {
	prefs := d.prefs()
	switch partyType {
	case models.PartyTypeSmoke:
		return prefs.Smoke
	case models.PartyTypeMeal:
		return prefs.Meal
	case models.PartyTypeCoffee:
		return prefs.Coffee
	}
	return false
}

func titleFor(partyType string) string {
	switch partyType {
	case models.PartyTypeSmoke:
		return "담배 한 대 고?"
	case models.PartyTypeMeal:
		return "밥 먹으러 고?"
	default:
		return "커피 한 잔 고?"
	}
}
