package controller

import (
	"sync/atomic"

	"dambabgo/models"
	"dambabgo/notifier"
	"dambabgo/party"

	"github.com/gofiber/websocket/v2"
)

type subscribeFrame struct {
	NotificationsGranted bool `json:"notifications_granted"`
}

type snapshotMessage struct {
	Type    string         `json:"type"`
	Parties []models.Party `json:"parties"`
}

type notificationMessage struct {
	Type         string         `json:"type"`
	Notification notifier.Event `json:"notification"`
}

// HandlePartyStreamWS streams the full party list to one client: the current
// snapshot immediately, then again after every committed change, interleaved
// with notification events derived by this session's dispatcher.
//
// The client opens with a subscribe frame carrying its browser notification
// permission state and may re-send the frame whenever that state changes.
func (pc *PartyController) HandlePartyStreamWS(c *websocket.Conn) {
	defer c.Close()

	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return
	}

	var first subscribeFrame
	if err := c.ReadJSON(&first); err != nil {
		pc.Logger.Printf("Party stream: failed to read subscribe frame: %v", err)
		return
	}

	var granted atomic.Bool
	granted.Store(first.NotificationsGranted)

	dispatcher := notifier.New(
		user.UID,
		func() notifier.Prefs { return pc.loadPrefs(user.ID) },
		granted.Load,
	)

	snapshots, unsubscribe := pc.Store.Subscribe()
	defer unsubscribe()

	// Reader loop: permission updates and disconnect detection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var frame subscribeFrame
			if err := c.ReadJSON(&frame); err != nil {
				return
			}
			granted.Store(frame.NotificationsGranted)
		}
	}()

	for {
		select {
		case snapshot, open := <-snapshots:
			if !open {
				return
			}
			msg := snapshotMessage{
				Type:    "snapshot",
				Parties: party.SortForDisplay(snapshot),
			}
			if err := c.WriteJSON(msg); err != nil {
				return
			}
			for _, event := range dispatcher.Observe(snapshot) {
				if err := c.WriteJSON(notificationMessage{
					Type:         "notification",
					Notification: event,
				}); err != nil {
					return
				}
			}
		case <-done:
			return
		}
	}
}
