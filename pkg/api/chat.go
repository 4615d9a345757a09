package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quill-chat/quill/pkg/store"
	"github.com/quill-chat/quill/pkg/toast"
)

// FoundUser is a user-search result.
type FoundUser struct {
	ID          int    `json:"id"`
	Login       string `json:"login"`
	FirstName   string `json:"first_name,omitempty"`
	SecondName  string `json:"second_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// SessionOpener is the slice of the chat socket manager the controller
// needs to connect to a chat.
type SessionOpener interface {
	Open(ctx context.Context, chatID int, token string) bool
	Close()
}

// ChatController owns the chat list, membership, and the connect-to-chat
// flow.
type ChatController struct {
	Deps
	Store   *store.Store
	Session SessionOpener
}

// FetchChats reloads the chat list, preserving which chat is active.
func (c *ChatController) FetchChats(ctx context.Context) bool {
	activeID := c.activeChatID()

	resp, err := c.Client.Get(ctx, "/chats")
	if err != nil || !resp.OK() {
		c.fail(resp, err, "Error during downloading all chats data")
		return false
	}

	var chats []store.Chat
	if err := json.Unmarshal(resp.Body, &chats); err != nil {
		c.logger().Error("api: chats payload unparsable", "error", err)
		return false
	}

	for i := range chats {
		chats[i].IsActive = activeID != 0 && chats[i].ID == activeID
	}
	c.Store.SetChats(chats)
	return true
}

// CreateChat creates a chat and reloads the list.
func (c *ChatController) CreateChat(ctx context.Context, title string) bool {
	resp, err := c.Client.Post(ctx, "/chats", map[string]string{"title": title})
	if err != nil || !resp.OK() {
		c.fail(resp, err, "Error during creating chat")
		return false
	}

	toast.Success(c.Notifier, "New chat created successfully")
	return c.FetchChats(ctx)
}

// DeleteChat removes a chat, disconnecting first when it is the active one.
func (c *ChatController) DeleteChat(ctx context.Context, chatID int) bool {
	if c.activeChatID() == chatID && c.Session != nil {
		c.Session.Close()
		c.Store.ClearActiveChat()
		c.Store.ClearMessages()
	}

	resp, err := c.Client.Delete(ctx, "/chats", map[string]int{"chatId": chatID})
	if err != nil || !resp.OK() {
		c.fail(resp, err, "Error during deleting chat")
		return false
	}

	toast.Success(c.Notifier, "Chat deleted successfully")
	return c.FetchChats(ctx)
}

// SearchUsers finds users by login prefix.
func (c *ChatController) SearchUsers(ctx context.Context, login string) []FoundUser {
	resp, err := c.Client.Post(ctx, "/user/search", map[string]string{"login": login})
	if err != nil || !resp.OK() {
		c.fail(resp, err, "Error during searching users")
		return nil
	}

	var users []FoundUser
	if err := json.Unmarshal(resp.Body, &users); err != nil {
		c.logger().Error("api: search payload unparsable", "error", err)
		return nil
	}
	return users
}

// AddMember adds a user to the active chat by exact login.
func (c *ChatController) AddMember(ctx context.Context, login string) bool {
	return c.changeMembers(ctx, login, false)
}

// RemoveMember removes a user from the active chat by exact login.
func (c *ChatController) RemoveMember(ctx context.Context, login string) bool {
	return c.changeMembers(ctx, login, true)
}

func (c *ChatController) changeMembers(ctx context.Context, login string, remove bool) bool {
	chatID := c.activeChatID()
	if chatID == 0 {
		toast.Warning(c.Notifier, "Select a chat first")
		return false
	}

	userID := c.userIDByExactLogin(ctx, login)
	if userID == 0 {
		toast.Error(c.Notifier, fmt.Sprintf("User %q not found", login))
		return false
	}

	body := map[string]any{"users": []int{userID}, "chatId": chatID}
	var (
		resp Response
		err  error
	)
	if remove {
		resp, err = c.Client.Delete(ctx, "/chats/users", body)
	} else {
		resp, err = c.Client.Put(ctx, "/chats/users", body)
	}
	if err != nil || !resp.OK() {
		c.fail(resp, err, "Error during changing chat members")
		return false
	}

	if remove {
		toast.Success(c.Notifier, "User removed from chat")
	} else {
		toast.Success(c.Notifier, "User added to chat")
	}
	return true
}

func (c *ChatController) userIDByExactLogin(ctx context.Context, login string) int {
	login = strings.TrimSpace(login)
	for _, u := range c.SearchUsers(ctx, login) {
		if u.Login == login {
			return u.ID
		}
	}
	return 0
}

// Token fetches the short-lived connection token for a chat.
func (c *ChatController) Token(ctx context.Context, chatID int) (string, bool) {
	resp, err := c.Client.Post(ctx, fmt.Sprintf("/chats/token/%d", chatID), nil)
	if err != nil || !resp.OK() {
		c.fail(resp, err, "Error during getting chat token")
		return "", false
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil || payload.Token == "" {
		c.logger().Error("api: token payload unparsable", "error", err)
		return "", false
	}

	c.Store.SetToken(payload.Token)
	return payload.Token, true
}

// Connect runs the select-chat flow: fetch a token, mark the chat active,
// reset the message pane, and open the live connection.
func (c *ChatController) Connect(ctx context.Context, chatID int) bool {
	token, ok := c.Token(ctx, chatID)
	if !ok {
		return false
	}

	c.Store.ClearMessages()
	c.Store.SetActiveChat(chatID)

	if c.Session == nil {
		c.logger().Error("api: no session manager configured")
		return false
	}
	return c.Session.Open(ctx, chatID, token)
}

func (c *ChatController) activeChatID() int {
	state := c.Store.GetState()
	for _, chat := range state.Chats {
		if chat.IsActive {
			return chat.ID
		}
	}
	if state.ActiveChat != nil {
		return state.ActiveChat.ID
	}
	return 0
}
