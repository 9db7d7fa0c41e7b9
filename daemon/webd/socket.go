package webd

import (
	"encoding/json"

	"github.com/olahol/melody"
	"github.com/tidwall/gjson"
)

type websocketAction string

var (
	websocketActionSubscribed     websocketAction = "subscribed"
	websocketActionReconstruction websocketAction = "reconstruction"
)

// sessionKey holds the session a websocket client follows. Clients without one follow all sessions.
const sessionKey = "session"

type broadcast struct {
	Action  websocketAction `json:"action"`
	Session string          `json:"session,omitempty"`
	*sessionView
}

// initMelody sets up the websocket handler.
// Clients pick a session with /live?session=<id>, or later by sending {"session":"<id>"}.
func (s *WebDaemon) initMelody() {
	s.melodyInstance = melody.New()

	s.melodyInstance.HandleConnect(func(ms *melody.Session) {
		id := ms.Request.URL.Query().Get(sessionKey)
		s.logger.Info("Websocket connected", "remote", ms.Request.RemoteAddr, "session", id)
		s.subscribe(ms, id)
	})

	s.melodyInstance.HandleMessage(func(ms *melody.Session, msg []byte) {
		id := gjson.GetBytes(msg, sessionKey)
		if !id.Exists() {
			s.logger.Debug("Websocket message dropped", "remote", ms.Request.RemoteAddr, "message", string(msg))
			return
		}
		s.subscribe(ms, id.String())
	})

	s.melodyInstance.HandleDisconnect(func(ms *melody.Session) {
		s.logger.Info("Websocket disconnected", "remote", ms.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(ms *melody.Session, e error) {
		s.logger.Warn("Websocket error", "error", e, "remote", ms.Request.RemoteAddr)
	})

	// Broadcast every session reconstruction to the clients following it.
	updates := make(chan sessionView)
	sub := s.feedReconstructed.Subscribe(updates)
	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case u := <-updates:
				b, err := json.Marshal(broadcast{
					Action:      websocketActionReconstruction,
					Session:     u.ID,
					sessionView: &u,
				})
				if err != nil {
					s.logger.Error("Failed to marshal reconstruction", "error", err)
					continue
				}
				err = s.melodyInstance.BroadcastFilter(b, func(ms *melody.Session) bool {
					following, ok := ms.Get(sessionKey)
					return !ok || following == "" || following == u.ID
				})
				if err != nil {
					s.logger.Warn("Failed to broadcast reconstruction", "error", err)
					if s.melodyInstance.IsClosed() {
						return
					}
				}
			case err := <-sub.Err():
				if err != nil {
					s.logger.Error("Reconstruction feed subscription failed", "error", err)
				}
				return
			}
		}
	}()
}

// subscribe points a websocket client at a session and acknowledges
// with the session's current reconstruction, if it exists.
func (s *WebDaemon) subscribe(ms *melody.Session, id string) {
	ms.Set(sessionKey, id)
	ack := broadcast{Action: websocketActionSubscribed, Session: id}
	if id != "" {
		if item := s.sessions.Get(id); item != nil {
			v := item.Value().view()
			ack.sessionView = &v
		}
	}
	b, err := json.Marshal(ack)
	if err != nil {
		s.logger.Error("Failed to marshal subscription", "error", err)
		return
	}
	if err := ms.Write(b); err != nil {
		s.logger.Warn("Failed to write subscription", "error", err)
	}
}
