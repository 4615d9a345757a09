package store

// User is the authenticated account.
type User struct {
	ID          int    `json:"id,omitempty"`
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
	DisplayName string `json:"display_name,omitempty"`
	Phone       string `json:"phone"`
	Login       string `json:"login"`
	Avatar      string `json:"avatar,omitempty"`
	Email       string `json:"email"`
}

// Message is a chat message, live or historical.
type Message struct {
	ID      int    `json:"id,omitempty"`
	ChatID  int    `json:"chat_id,omitempty"`
	UserID  int    `json:"user_id,omitempty"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
	Time    string `json:"time,omitempty"`
}

// LastMessage is the preview shown on a chat card.
type LastMessage struct {
	Content string `json:"content"`
	Time    string `json:"time,omitempty"`
}

// Chat is one conversation in the chat list.
type Chat struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Avatar      string       `json:"avatar,omitempty"`
	UnreadCount int          `json:"unread_count"`
	IsActive    bool         `json:"isActive"`
	LastMessage *LastMessage `json:"last_message,omitempty"`
}

// ActiveChat identifies the chat currently displayed and connected.
type ActiveChat struct {
	ID int `json:"id"`
}

// State is the full application state. Mutations replace the whole record.
type State struct {
	User       *User       `json:"user,omitempty"`
	Chats      []Chat      `json:"chats,omitempty"`
	Messages   []Message   `json:"messages,omitempty"` // newest-first
	Token      string      `json:"token,omitempty"`
	ActiveChat *ActiveChat `json:"activeChat,omitempty"`
}

// clone deep-copies the state so emitted snapshots cannot alias the live
// record.
func (s State) clone() State {
	next := s
	if s.User != nil {
		u := *s.User
		next.User = &u
	}
	if s.ActiveChat != nil {
		a := *s.ActiveChat
		next.ActiveChat = &a
	}
	if s.Chats != nil {
		next.Chats = make([]Chat, len(s.Chats))
		copy(next.Chats, s.Chats)
		for i, c := range next.Chats {
			if c.LastMessage != nil {
				lm := *c.LastMessage
				next.Chats[i].LastMessage = &lm
			}
		}
	}
	if s.Messages != nil {
		next.Messages = make([]Message, len(s.Messages))
		copy(next.Messages, s.Messages)
	}
	return next
}
