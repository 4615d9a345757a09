package api

import (
	"context"
	"encoding/json"

	"github.com/quill-chat/quill/pkg/store"
	"github.com/quill-chat/quill/pkg/toast"
)

// SignUpRequest is the registration payload.
type SignUpRequest struct {
	FirstName  string `json:"first_name"`
	SecondName string `json:"second_name"`
	Login      string `json:"login"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone"`
}

// AuthController owns the sign-in/up/out flows and the current-user
// bootstrap.
type AuthController struct {
	Deps
	Store *store.Store
}

// SignIn authenticates and loads the current user into the store.
func (c *AuthController) SignIn(ctx context.Context, login, password string) bool {
	resp, err := c.Client.Post(ctx, "/auth/signin", map[string]string{
		"login":    login,
		"password": password,
	})
	if err != nil || !resp.OK() {
		c.fail(resp, err, "Error during signing in")
		return false
	}
	return c.FetchUser(ctx)
}

// SignUp registers a new account and loads it into the store.
func (c *AuthController) SignUp(ctx context.Context, data SignUpRequest) bool {
	resp, err := c.Client.Post(ctx, "/auth/signup", data)
	if err != nil || !resp.OK() {
		c.fail(resp, err, "Error during signing up")
		return false
	}
	toast.Success(c.Notifier, "Account created successfully")
	return c.FetchUser(ctx)
}

// SignOut ends the session and clears session state.
func (c *AuthController) SignOut(ctx context.Context) bool {
	resp, err := c.Client.Post(ctx, "/auth/logout", nil)
	if err != nil || !resp.OK() {
		c.fail(resp, err, "Error during signing out")
		return false
	}

	c.Store.SetUser(nil)
	c.Store.SetChats(nil)
	c.Store.ClearMessages()
	c.Store.ClearActiveChat()
	c.Store.SetToken("")
	return true
}

// FetchUser loads the authenticated user into the store.
func (c *AuthController) FetchUser(ctx context.Context) bool {
	resp, err := c.Client.Get(ctx, "/auth/user")
	if err != nil || !resp.OK() {
		c.fail(resp, err, "Error during downloading user data")
		return false
	}

	var user store.User
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		c.logger().Error("api: user payload unparsable", "error", err)
		toast.Error(c.Notifier, "Error during downloading user data")
		return false
	}

	c.Store.SetUser(&user)
	return true
}
