package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AnshRaj112/karmnik-backend/internal/logger"
	"github.com/AnshRaj112/karmnik-backend/internal/models"
	"github.com/AnshRaj112/karmnik-backend/internal/view"
	"github.com/AnshRaj112/karmnik-backend/pkg/clientip"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 30 * time.Second
	wsReadLimit  = 4 * 1024
)

// SnapshotMessage is what the server pushes on /ws/feedings.
type SnapshotMessage struct {
	Type    string    `json:"type"` // always "snapshot"
	Version uint64    `json:"version"`
	TakenAt time.Time `json:"taken_at,omitzero"` // when the store was queried; absent while loading
	Page    view.Page `json:"page"`
}

func (h *FeedingHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
}

// checkOrigin accepts same-host pages, configured origins and non-browser clients.
func (h *FeedingHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, a := range h.allowedOrigins {
		if strings.EqualFold(strings.TrimSpace(a), origin) {
			return true
		}
	}
	return false
}

// FeedingsWebSocket streams full snapshots of the feedings list. The
// subscription lives exactly as long as the socket.
func (h *FeedingHandler) FeedingsWebSocket(w http.ResponseWriter, r *http.Request) {
	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe()
	defer sub.Close()

	logger.Debug("viewer connected", "module", "ws", "id", sub.ID, "ip", clientip.ForwardedClientIP(r))

	// A viewer that connects before the first snapshot sees the loading state.
	if _, loaded := h.hub.Current(); !loaded {
		if err := h.writeSnapshot(conn, models.Snapshot{}, false); err != nil {
			return
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case snap, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := h.writeSnapshot(conn, snap, true); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop: the page never sends anything meaningful, but reading
	// drives pong handling and notices the close.
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	sub.Close()
	<-done
	logger.Debug("viewer disconnected", "module", "ws", "id", sub.ID)
}

func (h *FeedingHandler) writeSnapshot(conn *websocket.Conn, snap models.Snapshot, loaded bool) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(SnapshotMessage{
		Type:    "snapshot",
		Version: snap.Version,
		TakenAt: snap.TakenAt,
		Page:    view.BuildPage(snap, loaded, h.formatter),
	})
}
