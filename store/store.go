// Package store is the synchronization layer over the parties table. Writers
// go through Create/Apply; readers subscribe and receive the full current
// party list after every committed change, never a diff.
package store

import (
	"fmt"
	"log"
	"sync"
	"time"

	"dambabgo/models"
	"dambabgo/party"

	"gorm.io/gorm"
)

// Transition computes a column delta from a fresh party snapshot. The
// functions in the party package (and controller-side wrappers around them)
// satisfy this.
type Transition func(p *models.Party) (party.Delta, error)

type Store struct {
	DB     *gorm.DB
	Logger *log.Logger

	mu     sync.Mutex
	subs   map[int]chan []models.Party
	nextID int
}

func New(db *gorm.DB, logger *log.Logger) *Store {
	return &Store{
		DB:     db,
		Logger: logger,
		subs:   make(map[int]chan []models.Party),
	}
}

// Subscribe registers a snapshot consumer. The current snapshot is delivered
// immediately, then once after every committed write. Channels are buffered
// with capacity one and stale pending snapshots are replaced by newer ones,
// so slow consumers may skip intermediate states but always converge on the
// latest. The returned func unregisters and closes the channel.
func (s *Store) Subscribe() (<-chan []models.Party, func()) {
	ch := make(chan []models.Party, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	if snapshot, err := s.loadAll(); err != nil {
		s.Logger.Printf("Failed to load initial snapshot: %v", err)
	} else {
		ch <- snapshot
	}

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, unsubscribe
}

// Create inserts a new party, stamping its creation time, and broadcasts the
// updated snapshot. Returns the store-assigned id.
func (s *Store) Create(draft models.Party) (uint, error) {
	draft.CreatedAtMs = time.Now().UnixMilli()
	if err := s.DB.Create(&draft).Error; err != nil {
		return 0, err
	}
	s.broadcast()
	return draft.ID, nil
}

// Apply loads the party, runs the transition against the fresh row inside a
// transaction and writes the resulting delta. Precondition failures roll
// back and are returned unchanged; nothing is broadcast in that case.
//
// There is no row lock and no version token: concurrent writers to the same
// column serialize on the database and the last commit wins at column
// granularity, matching the backing-store contract the rest of the system
// is written against.
func (s *Store) Apply(partyID uint, transition Transition) error {
	changed := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Party
		if err := tx.First(&p, partyID).Error; err != nil {
			return err
		}

		delta, err := transition(&p)
		if err != nil {
			return err
		}
		if len(delta) == 0 {
			return nil
		}

		columns, err := foldDelta(&p, delta)
		if err != nil {
			return err
		}

		changed = true
		return tx.Model(&p).Select(columns).Updates(&p).Error
	})
	if err != nil {
		return err
	}
	if changed {
		s.broadcast()
	}
	return nil
}

// foldDelta writes the delta's values onto the loaded row and returns the
// touched column names. Updating through the struct keeps the JSON field
// serializer on the write path; map-valued Updates bypass it and hand the
// driver raw Go maps.
func foldDelta(p *models.Party, delta party.Delta) ([]string, error) {
	columns := make([]string, 0, len(delta))
	for column, value := range delta {
		switch column {
		case "participants":
			p.Participants = value.([]string)
		case "participant_names":
			p.ParticipantNames = value.(map[string]string)
		case "orders":
			p.Orders = value.(map[string]string)
		case "vote_options":
			p.VoteOptions = value.([]models.VoteOption)
		case "status":
			p.Status = value.(string)
		default:
			return nil, fmt.Errorf("unknown party column %q", column)
		}
		columns = append(columns, column)
	}
	return columns, nil
}

// Snapshot returns the current full party list, newest first.
func (s *Store) Snapshot() ([]models.Party, error) {
	return s.loadAll()
}

func (s *Store) loadAll() ([]models.Party, error) {
	var parties []models.Party
	if err := s.DB.Order("created_at_ms DESC").Find(&parties).Error; err != nil {
		return nil, err
	}
	return parties, nil
}

func (s *Store) broadcast() {
	snapshot, err := s.loadAll()
	if err != nil {
		s.Logger.Printf("Failed to load snapshot for broadcast: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		// Replace any undelivered snapshot rather than block.
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}
