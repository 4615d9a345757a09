package devserver

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quill-chat/quill/pkg/store"
)

// account is a registered user plus credentials.
type account struct {
	store.User
	Password string
}

// chat is one conversation with its full message log.
type chat struct {
	ID       int
	Title    string
	Members  map[int]bool
	Messages []store.Message // append order, oldest first
}

// database is the in-memory backing state. Everything is guarded by mu;
// handlers take short critical sections and never call out while holding it.
type database struct {
	mu sync.Mutex

	users  map[int]*account
	chats  map[int]*chat
	nextID int

	sessions   map[string]int       // cookie value -> user id
	chatTokens map[string]chatGrant // token -> grant
}

type chatGrant struct {
	ChatID int
	UserID int
}

func newDatabase() *database {
	return &database{
		users:      make(map[int]*account),
		chats:      make(map[int]*chat),
		sessions:   make(map[string]int),
		chatTokens: make(map[string]chatGrant),
		nextID:     1,
	}
}

func (d *database) id() int {
	id := d.nextID
	d.nextID++
	return id
}

func (d *database) createUser(acc account) *account {
	d.mu.Lock()
	defer d.mu.Unlock()
	acc.ID = d.id()
	d.users[acc.ID] = &acc
	return &acc
}

func (d *database) userByLogin(login string) *account {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Login == login {
			copied := *u
			return &copied
		}
	}
	return nil
}

func (d *database) user(id int) *account {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		copied := *u
		return &copied
	}
	return nil
}

func (d *database) updateUser(id int, mutate func(*account)) *account {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return nil
	}
	mutate(u)
	copied := *u
	return &copied
}

func (d *database) searchUsers(login string) []store.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []store.User
	for _, u := range d.users {
		if strings.Contains(strings.ToLower(u.Login), strings.ToLower(login)) {
			out = append(out, u.User)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// openSession issues a cookie value for the user.
func (d *database) openSession(userID int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := uuid.NewString()
	d.sessions[id] = userID
	return id
}

func (d *database) closeSession(cookie string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sessions, cookie)
}

// sessionUser resolves a cookie value to a user id, 0 when unknown.
func (d *database) sessionUser(cookie string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessions[cookie]
}

func (d *database) createChat(title string, ownerID int) store.Chat {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := &chat{
		ID:      d.id(),
		Title:   title,
		Members: map[int]bool{ownerID: true},
	}
	d.chats[c.ID] = c
	return store.Chat{ID: c.ID, Title: c.Title}
}

func (d *database) deleteChat(chatID, userID int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.chats[chatID]
	if !ok || !c.Members[userID] {
		return false
	}
	delete(d.chats, chatID)
	return true
}

// chatsFor lists the user's chats with the last-message preview filled in.
func (d *database) chatsFor(userID int) []store.Chat {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []store.Chat
	for _, c := range d.chats {
		if !c.Members[userID] {
			continue
		}
		entry := store.Chat{ID: c.ID, Title: c.Title}
		if n := len(c.Messages); n > 0 {
			last := c.Messages[n-1]
			entry.LastMessage = &store.LastMessage{Content: last.Content, Time: last.Time}
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *database) changeMembers(chatID, userID int, add bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.chats[chatID]
	if !ok {
		return false
	}
	if add {
		c.Members[userID] = true
	} else {
		delete(c.Members, userID)
	}
	return true
}

// issueChatToken mints a one-connection token after checking membership.
func (d *database) issueChatToken(chatID, userID int) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.chats[chatID]
	if !ok || !c.Members[userID] {
		return "", false
	}
	token := uuid.NewString()
	d.chatTokens[token] = chatGrant{ChatID: chatID, UserID: userID}
	return token, true
}

// redeemChatToken validates a token against the dialed user and chat.
func (d *database) redeemChatToken(token string, chatID, userID int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	grant, ok := d.chatTokens[token]
	if !ok || grant.ChatID != chatID || grant.UserID != userID {
		return false
	}
	delete(d.chatTokens, token)
	return true
}

// appendMessage stores a live message and returns it with id and time set.
func (d *database) appendMessage(chatID, userID int, content string) (store.Message, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.chats[chatID]
	if !ok {
		return store.Message{}, false
	}
	msg := store.Message{
		ID:      d.id(),
		ChatID:  chatID,
		UserID:  userID,
		Content: content,
		Type:    "message",
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	c.Messages = append(c.Messages, msg)
	return msg, true
}

// historyPage returns up to pageSize messages newest first, skipping
// offset newest messages.
func (d *database) historyPage(chatID, offset, pageSize int) []store.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.chats[chatID]
	if !ok {
		return nil
	}

	page := make([]store.Message, 0, pageSize)
	for i := len(c.Messages) - 1 - offset; i >= 0 && len(page) < pageSize; i-- {
		page = append(page, c.Messages[i])
	}
	return page
}
