package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autopeer-io/picar/internal/agent/core"
	"github.com/autopeer-io/picar/internal/car"
	"github.com/autopeer-io/picar/pkg/log"
)

// EventCarInfo names the snapshot event pushed to websocket clients.
const EventCarInfo = "car_info"

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Event is the envelope of every server to client message.
type Event struct {
	Event string       `json:"event"`
	Data  car.Snapshot `json:"data"`
}

// handleWebsocket pushes the current snapshot on connect and every change
// after it, and runs actions received as {"action": name}.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(err, "Error upgrading websocket")
		return
	}
	defer ws.Close()

	sub := s.watcher.Subscribe()
	defer sub.Close()

	// Info below supersedes the snapshot Subscribe replays.
	select {
	case <-sub.C():
	default:
	}

	log.Info("Websocket client connected", "remote", r.RemoteAddr)
	if err := writeEvent(ws, s.vehicle.Info()); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.readActions(ws, r.RemoteAddr)
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			log.Info("Websocket client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		case snap := <-sub.C():
			if err := writeEvent(ws, snap); err != nil {
				log.Warn("Websocket write failed", "remote", r.RemoteAddr, "err", err)
				return
			}
		case <-ping.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) readActions(ws *websocket.Conn, remote string) {
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg core.CommandMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("Error reading from websocket", "remote", remote, "err", err)
			}
			return
		}
		if err := s.vehicle.DoAction(msg.Action); err != nil {
			log.Error(err, "Action failed", "action", msg.Action, "remote", remote)
		}
	}
}

func writeEvent(ws *websocket.Conn, snap car.Snapshot) error {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteJSON(Event{Event: EventCarInfo, Data: snap})
}
