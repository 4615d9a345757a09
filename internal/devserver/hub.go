package devserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/quill-chat/quill/pkg/store"
)

// HistoryPageSize is how many messages one "get old" request returns.
const HistoryPageSize = 20

// hub fans live messages out to every connection in a chat room.
type hub struct {
	db  *database
	log *slog.Logger

	mu    sync.Mutex
	rooms map[int]map[*client]bool
}

type client struct {
	conn    *websocket.Conn
	chatID  int
	userID  int
	writeMu sync.Mutex
}

func newHub(db *database, log *slog.Logger) *hub {
	return &hub{
		db:    db,
		log:   log,
		rooms: make(map[int]map[*client]bool),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serve upgrades the connection after the token check and runs the read
// loop until the client goes away.
func (h *hub) serve(w http.ResponseWriter, r *http.Request, userID, chatID int, token string) {
	if !h.db.redeemChatToken(token, chatID, userID) {
		http.Error(w, "invalid chat token", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("devserver: websocket upgrade", "error", err)
		return
	}

	c := &client{conn: conn, chatID: chatID, userID: userID}
	h.join(c)
	defer h.leave(c)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.handle(c, data)
	}
}

func (h *hub) join(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[c.chatID]
	if room == nil {
		room = make(map[*client]bool)
		h.rooms[c.chatID] = room
	}
	room[c] = true
}

func (h *hub) leave(c *client) {
	h.mu.Lock()
	room := h.rooms[c.chatID]
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.chatID)
	}
	h.mu.Unlock()
	c.conn.Close()
}

// handle processes one inbound frame: "ping" keep-alives, "get old"
// history requests, and "message" sends. Anything else gets an error frame
// back without closing the connection.
func (h *hub) handle(c *client, data []byte) {
	if string(data) == "ping" {
		return
	}

	var frame struct {
		Content string `json:"content"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		h.sendError(c, "malformed payload")
		return
	}

	switch frame.Type {
	case "get old":
		offset, err := strconv.Atoi(frame.Content)
		if err != nil || offset < 0 {
			h.sendError(c, "invalid history offset")
			return
		}
		page := h.db.historyPage(c.chatID, offset, HistoryPageSize)
		c.send(page)

	case "message":
		msg, ok := h.db.appendMessage(c.chatID, c.userID, frame.Content)
		if !ok {
			h.sendError(c, "chat no longer exists")
			return
		}
		h.broadcast(c.chatID, msg)

	case "ping":
		return

	default:
		h.sendError(c, "unknown message type: "+frame.Type)
	}
}

// broadcast delivers a live message to every member of the room, the
// sender included.
func (h *hub) broadcast(chatID int, msg store.Message) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.rooms[chatID]))
	for c := range h.rooms[chatID] {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.send(msg)
	}
}

func (h *hub) sendError(c *client, reason string) {
	c.send(store.Message{Type: "error", Content: reason})
}

func (c *client) send(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.WriteMessage(websocket.TextMessage, payload)
}
