package models

import (
	"gorm.io/gorm"
)

// Party types
const (
	PartyTypeCoffee = "COFFEE"
	PartyTypeSmoke  = "SMOKE"
	PartyTypeMeal   = "MEAL"
)

// Party status — OPEN parties accept commands, CLOSED is terminal
const (
	PartyStatusOpen   = "OPEN"
	PartyStatusClosed = "CLOSED"
)

// How a MEAL party picks its menu
const (
	MealModeFixed = "FIXED"
	MealModeVote  = "VOTE"
)

// VoteOption is a named menu candidate within a MEAL/VOTE party. Votes holds
// the UIDs of users currently voting for this option; a UID appears in at
// most one option's Votes across the whole party.
type VoteOption struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Votes []string `json:"votes"`
}

// Party is one ad-hoc meetup (coffee / smoke break / meal). Membership,
// per-user orders and the vote board are stored as JSON columns so each
// party reads and writes like a single document.
type Party struct {
	gorm.Model

	Type   string `gorm:"not null;index" json:"type"` // COFFEE, SMOKE, MEAL
	Status string `gorm:"not null;default:'OPEN';index" json:"status"`

	CreatorID   string `gorm:"not null;index" json:"creator_id"`
	CreatorName string `gorm:"not null" json:"creator_name"`

	// Epoch millis, set by the store on insert. Drives display ordering and
	// the notification recency window.
	CreatedAtMs int64 `gorm:"not null;index" json:"created_at"`
	MeetTimeMs  int64 `json:"meet_time"`

	Location    string `gorm:"not null" json:"location"`
	Description string `json:"description"`

	Participants     []string          `gorm:"type:jsonb;serializer:json" json:"participants"`
	ParticipantNames map[string]string `gorm:"type:jsonb;serializer:json" json:"participant_names"`

	// UID -> free-text order, used mainly for coffee runs. Entries exist
	// only for users who set one and are removed when the user leaves.
	Orders map[string]string `gorm:"type:jsonb;serializer:json" json:"orders"`

	// Meal specific
	MealMode       string       `json:"meal_mode,omitempty"`
	FixedMenu      string       `json:"fixed_menu,omitempty"`
	VoteOptions    []VoteOption `gorm:"type:jsonb;serializer:json" json:"vote_options"`
	AllowAddOption bool         `gorm:"default:false" json:"allow_add_option"`
}

// IsOpen reports whether the party still accepts commands.
func (p *Party) IsOpen() bool {
	return p.Status == PartyStatusOpen
}

// HasParticipant reports whether uid already joined.
func (p *Party) HasParticipant(uid string) bool {
	for _, id := range p.Participants {
		if id == uid {
			return true
		}
	}
	return false
}
