package store

import (
	"io"
	"log"
	"testing"

	"dambabgo/models"
	"dambabgo/party"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Party{}))

	return New(db, log.New(io.Discard, "", 0))
}

func testCreator() *models.User {
	return &models.User{UID: "creator", DisplayName: "김민수"}
}

func createCoffeeParty(t *testing.T, s *Store) uint {
	t.Helper()
	id, err := s.Create(party.NewParty(party.CreateInput{
		Type:     models.PartyTypeCoffee,
		Location: "1층 로비",
	}, testCreator()))
	require.NoError(t, err)
	return id
}

// receive reads the pending snapshot, failing if none was delivered.
func receive(t *testing.T, ch <-chan []models.Party) []models.Party {
	t.Helper()
	select {
	case snapshot, ok := <-ch:
		require.True(t, ok, "snapshot channel closed")
		return snapshot
	default:
		t.Fatal("no snapshot pending")
		return nil
	}
}

func TestSubscribeDeliversCurrentSnapshotImmediately(t *testing.T) {
	s := newTestStore(t)
	createCoffeeParty(t, s)

	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	snapshot := receive(t, ch)
	require.Len(t, snapshot, 1)
	assert.Equal(t, models.PartyTypeCoffee, snapshot[0].Type)
}

func TestCreateStampsTimestampAndBroadcasts(t *testing.T) {
	s := newTestStore(t)

	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()
	_ = receive(t, ch) // initial empty snapshot

	id := createCoffeeParty(t, s)
	require.NotZero(t, id)

	snapshot := receive(t, ch)
	require.Len(t, snapshot, 1)
	assert.Equal(t, id, snapshot[0].ID)
	assert.NotZero(t, snapshot[0].CreatedAtMs)
	assert.Equal(t, models.PartyStatusOpen, snapshot[0].Status)
	assert.Equal(t, []string{"creator"}, snapshot[0].Participants)
}

func TestApplyJoinPersistsAndBroadcasts(t *testing.T) {
	s := newTestStore(t)
	id := createCoffeeParty(t, s)

	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()
	_ = receive(t, ch)

	err := s.Apply(id, func(p *models.Party) (party.Delta, error) {
		return party.Join(p, "user-a", "이영희")
	})
	require.NoError(t, err)

	snapshot := receive(t, ch)
	require.Len(t, snapshot, 1)
	assert.Equal(t, []string{"creator", "user-a"}, snapshot[0].Participants)
	assert.Equal(t, "이영희", snapshot[0].ParticipantNames["user-a"])

	// And it survives a fresh read.
	var stored models.Party
	require.NoError(t, s.DB.First(&stored, id).Error)
	assert.Equal(t, []string{"creator", "user-a"}, stored.Participants)
}

func TestApplyOrderAndLeavePersist(t *testing.T) {
	s := newTestStore(t)
	id := createCoffeeParty(t, s)

	require.NoError(t, s.Apply(id, func(p *models.Party) (party.Delta, error) {
		return party.Join(p, "user-a", "이영희")
	}))
	require.NoError(t, s.Apply(id, func(p *models.Party) (party.Delta, error) {
		return party.SetOrder(p, "user-a", "아이스 아메리카노")
	}))

	var stored models.Party
	require.NoError(t, s.DB.First(&stored, id).Error)
	assert.Equal(t, "아이스 아메리카노", stored.Orders["user-a"])

	require.NoError(t, s.Apply(id, func(p *models.Party) (party.Delta, error) {
		return party.Leave(p, "user-a")
	}))

	require.NoError(t, s.DB.First(&stored, id).Error)
	assert.Equal(t, []string{"creator"}, stored.Participants)
	assert.NotContains(t, stored.ParticipantNames, "user-a")
	assert.NotContains(t, stored.Orders, "user-a")
}

func TestApplyPreconditionFailureDoesNotBroadcast(t *testing.T) {
	s := newTestStore(t)
	id := createCoffeeParty(t, s)

	require.NoError(t, s.Apply(id, func(p *models.Party) (party.Delta, error) {
		return party.Close(p)
	}))

	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()
	_ = receive(t, ch)

	err := s.Apply(id, func(p *models.Party) (party.Delta, error) {
		return party.Join(p, "user-a", "이영희")
	})
	require.ErrorIs(t, err, party.ErrPartyClosed)

	select {
	case snapshot := <-ch:
		t.Fatalf("unexpected broadcast after rejected command: %v", snapshot)
	default:
	}

	var stored models.Party
	require.NoError(t, s.DB.First(&stored, id).Error)
	assert.Equal(t, []string{"creator"}, stored.Participants)
}

func TestApplyNoOpDeltaDoesNotBroadcast(t *testing.T) {
	s := newTestStore(t)
	id := createCoffeeParty(t, s)

	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()
	_ = receive(t, ch)

	// Creator re-joining is an empty delta.
	require.NoError(t, s.Apply(id, func(p *models.Party) (party.Delta, error) {
		return party.Join(p, "creator", "김민수")
	}))

	select {
	case <-ch:
		t.Fatal("unexpected broadcast after no-op command")
	default:
	}
}

func TestApplyUnknownPartyReturnsNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.Apply(999, func(p *models.Party) (party.Delta, error) {
		return party.Join(p, "user-a", "이영희")
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	s := newTestStore(t)

	ch1, unsub1 := s.Subscribe()
	defer unsub1()
	ch2, unsub2 := s.Subscribe()
	defer unsub2()
	_ = receive(t, ch1)
	_ = receive(t, ch2)

	createCoffeeParty(t, s)

	assert.Len(t, receive(t, ch1), 1)
	assert.Len(t, receive(t, ch2), 1)
}

func TestSlowSubscriberGetsLatestSnapshot(t *testing.T) {
	s := newTestStore(t)

	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	// Never drained the initial snapshot; two more writes land meanwhile.
	createCoffeeParty(t, s)
	createCoffeeParty(t, s)

	snapshot := receive(t, ch)
	// Intermediate states may be skipped, but the delivered one is current.
	assert.Len(t, snapshot, 2)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	s := newTestStore(t)

	ch, unsubscribe := s.Subscribe()
	_ = receive(t, ch)
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)

	// Writes after unsubscribe must not panic.
	createCoffeeParty(t, s)
}

func TestVoteAppliedToFreshRow(t *testing.T) {
	s := newTestStore(t)

	draft := party.NewParty(party.CreateInput{
		Type:            models.PartyTypeMeal,
		Location:        "회사 앞",
		MealMode:        models.MealModeVote,
		VoteOptionNames: []string{"한식", "일식"},
	}, testCreator())
	id, err := s.Create(draft)
	require.NoError(t, err)

	var stored models.Party
	require.NoError(t, s.DB.First(&stored, id).Error)
	optA, optB := stored.VoteOptions[0].ID, stored.VoteOptions[1].ID

	require.NoError(t, s.Apply(id, func(p *models.Party) (party.Delta, error) {
		return party.Vote(p, optA, "user-a")
	}))
	require.NoError(t, s.Apply(id, func(p *models.Party) (party.Delta, error) {
		return party.Vote(p, optB, "user-a")
	}))

	require.NoError(t, s.DB.First(&stored, id).Error)
	assert.Empty(t, stored.VoteOptions[0].Votes)
	assert.Equal(t, []string{"user-a"}, stored.VoteOptions[1].Votes)
}
