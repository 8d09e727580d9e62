// Package party holds the pure transition logic for Party records: each
// command checks its precondition against a snapshot and returns the column
// delta the store should write. Nothing here touches the database.
package party

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"strconv"

	"dambabgo/models"
)

// Command rejections. Controllers map these to 4xx responses; every
// transition is a safe no-op when its precondition does not hold.
var (
	ErrPartyClosed   = errors.New("party is closed")
	ErrNotVoteMeal   = errors.New("party has no menu vote")
	ErrUnknownOption = errors.New("vote option does not exist")
)

// Delta is the set of column updates a transition produced. An empty delta
// means the command was already satisfied and there is nothing to write.
type Delta map[string]interface{}

// CreateInput carries the caller-supplied fields of a new party. Status,
// membership and timestamps are filled in by NewParty and the store.
type CreateInput struct {
	Type            string
	Location        string
	Description     string
	MeetTimeMs      int64
	MealMode        string
	FixedMenu       string
	VoteOptionNames []string
}

// NewParty builds an OPEN party draft with the creator auto-joined. The
// store assigns the id and creation timestamp on insert.
func NewParty(in CreateInput, creator *models.User) models.Party {
	p := models.Party{
		Type:        in.Type,
		Status:      models.PartyStatusOpen,
		CreatorID:   creator.UID,
		CreatorName: creator.DisplayName,
		MeetTimeMs:  in.MeetTimeMs,
		Location:    in.Location,
		Description: in.Description,
		Participants: []string{
			creator.UID,
		},
		ParticipantNames: map[string]string{
			creator.UID: creator.DisplayName,
		},
		Orders: map[string]string{},
	}

	if in.Type == models.PartyTypeMeal {
		p.MealMode = in.MealMode
		switch in.MealMode {
		case models.MealModeFixed:
			p.FixedMenu = in.FixedMenu
			if p.FixedMenu == "" {
				p.FixedMenu = "점심 식사"
			}
		case models.MealModeVote:
			p.AllowAddOption = true
			p.VoteOptions = make([]models.VoteOption, 0, len(in.VoteOptionNames))
			for _, name := range in.VoteOptionNames {
				p.VoteOptions = append(p.VoteOptions, models.VoteOption{
					ID:    newOptionID(p.VoteOptions),
					Name:  name,
					Votes: []string{},
				})
			}
		}
	}

	return p
}

// Join adds uid to the party. Re-joining is idempotent and never duplicates
// the membership entry.
func Join(p *models.Party, uid, displayName string) (Delta, error) {
	if !p.IsOpen() {
		return nil, ErrPartyClosed
	}
	if p.HasParticipant(uid) {
		return Delta{}, nil
	}

	participants := append(copyList(p.Participants), uid)
	names := copyMap(p.ParticipantNames)
	names[uid] = displayName

	return Delta{
		"participants":      participants,
		"participant_names": names,
	}, nil
}

// Leave removes uid from the membership, name and order maps. Leaving a
// party uid never joined is a no-op. The creator leaving neither closes the
// party nor reassigns ownership.
func Leave(p *models.Party, uid string) (Delta, error) {
	if !p.HasParticipant(uid) {
		return Delta{}, nil
	}

	participants := make([]string, 0, len(p.Participants)-1)
	for _, id := range p.Participants {
		if id != uid {
			participants = append(participants, id)
		}
	}
	names := copyMap(p.ParticipantNames)
	delete(names, uid)
	orders := copyMap(p.Orders)
	delete(orders, uid)

	return Delta{
		"participants":      participants,
		"participant_names": names,
		"orders":            orders,
	}, nil
}

// Close marks the party CLOSED. Closing an already-closed party is a no-op;
// the transition never reopens one. Ownership is not checked here — the
// HTTP layer restricts who may invoke it.
func Close(p *models.Party) (Delta, error) {
	if !p.IsOpen() {
		return Delta{}, nil
	}
	return Delta{"status": models.PartyStatusClosed}, nil
}

// Vote records uid's single choice: the uid is stripped from every option
// and appended to the one matching optionID. Re-voting the same option is a
// harmless re-assertion.
func Vote(p *models.Party, optionID, uid string) (Delta, error) {
	if !p.IsOpen() {
		return nil, ErrPartyClosed
	}
	if p.MealMode != models.MealModeVote {
		return nil, ErrNotVoteMeal
	}

	found := false
	options := make([]models.VoteOption, 0, len(p.VoteOptions))
	for _, opt := range p.VoteOptions {
		votes := make([]string, 0, len(opt.Votes)+1)
		for _, v := range opt.Votes {
			if v != uid {
				votes = append(votes, v)
			}
		}
		if opt.ID == optionID {
			votes = append(votes, uid)
			found = true
		}
		options = append(options, models.VoteOption{ID: opt.ID, Name: opt.Name, Votes: votes})
	}
	if !found {
		return nil, ErrUnknownOption
	}

	return Delta{"vote_options": options}, nil
}

// AddOption appends a new vote option with a fresh id. AllowAddOption is a
// display-level gate and is deliberately not enforced here.
func AddOption(p *models.Party, name string) (Delta, error) {
	if !p.IsOpen() {
		return nil, ErrPartyClosed
	}
	if p.MealMode != models.MealModeVote {
		return nil, ErrNotVoteMeal
	}

	options := append(copyOptions(p.VoteOptions), models.VoteOption{
		ID:    newOptionID(p.VoteOptions),
		Name:  name,
		Votes: []string{},
	})

	return Delta{"vote_options": options}, nil
}

// SetOrder sets uid's free-text order. Joining first is not required.
func SetOrder(p *models.Party, uid, menu string) (Delta, error) {
	if !p.IsOpen() {
		return nil, ErrPartyClosed
	}

	orders := copyMap(p.Orders)
	orders[uid] = menu

	return Delta{"orders": orders}, nil
}

// newOptionID returns a short random id that does not collide with any
// existing option id.
func newOptionID(existing []models.VoteOption) string {
	for {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			// crypto/rand failing is unrecoverable anyway
			panic(err)
		}
		id := strconv.FormatUint(binary.BigEndian.Uint64(buf[:]), 36)
		if len(id) > 9 {
			id = id[:9]
		}
		collision := false
		for _, opt := range existing {
			if opt.ID == id {
				collision = true
				break
			}
		}
		if !collision {
			return id
		}
	}
}

func copyList(src []string) []string {
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

func copyMap(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyOptions(src []models.VoteOption) []models.VoteOption {
	dst := make([]models.VoteOption, len(src))
	copy(dst, src)
	return dst
}
