package server

import (
	"net/http"
	"time"

	"gojam/logger"
	"gojam/model"

	"github.com/gorilla/websocket"
)

// FeedEvent is one live-feed message: a track that just entered the catalog.
type FeedEvent struct {
	Type    string         `json:"type"`
	TrackID int64          `json:"trackId"`
	Hit     model.TrackHit `json:"hit"`
	At      time.Time      `json:"at"`
}

// FeedHub broadcasts newly catalogued tracks to websocket subscribers. It
// implements catalog.Notifier; a full broadcast buffer drops the event rather
// than ever blocking an ingestion.
type FeedHub struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan FeedEvent
}

// NewFeedHub creates a FeedHub. Call Run in its own goroutine.
func NewFeedHub() *FeedHub {
	return &FeedHub{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan FeedEvent, 64),
	}
}

// Run owns the client set; all membership changes and writes go through here.
func (h *FeedHub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.clients[conn] = true
			logger.Debug("Feed client connected", logger.Int("clients", len(h.clients)))
		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
		case event := <-h.broadcast:
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(event); err != nil {
					delete(h.clients, conn)
					conn.Close()
				}
			}
		}
	}
}

// TrackCatalogued queues a feed event for broadcast.
func (h *FeedHub) TrackCatalogued(localID int64, hit model.TrackHit) {
	event := FeedEvent{
		Type:    "track_catalogued",
		TrackID: localID,
		Hit:     hit,
		At:      time.Now(),
	}
	select {
	case h.broadcast <- event:
	default:
		logger.Warn("Feed buffer full, dropping event", logger.Int64("trackId", localID))
	}
}

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and subscribes it to the feed.
func (h *FeedHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Feed upgrade failed", logger.ErrorField(err))
		return
	}
	h.register <- conn

	// Reader loop only to detect disconnects; the feed is one-way.
	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
