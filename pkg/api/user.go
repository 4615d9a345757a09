package api

import (
	"context"
	"encoding/json"
	"io"

	"github.com/quill-chat/quill/pkg/store"
	"github.com/quill-chat/quill/pkg/toast"
)

// ProfileRequest is the profile update payload.
type ProfileRequest struct {
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
	DisplayName string `json:"display_name"`
	Login       string `json:"login"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// UserController owns profile management.
type UserController struct {
	Deps
	Store *store.Store
}

// UpdateProfile saves profile fields and refreshes the stored user.
func (c *UserController) UpdateProfile(ctx context.Context, data ProfileRequest) bool {
	resp, err := c.Client.Put(ctx, "/user/profile", data)
	if err != nil || !resp.OK() {
		c.fail(resp, err, "Error during updating profile")
		return false
	}

	var user store.User
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		c.logger().Error("api: profile payload unparsable", "error", err)
		toast.Error(c.Notifier, "Error during updating profile")
		return false
	}

	c.Store.SetUser(&user)
	toast.Success(c.Notifier, "Profile updated successfully")
	return true
}

// UpdatePassword changes the account password.
func (c *UserController) UpdatePassword(ctx context.Context, oldPassword, newPassword string) bool {
	resp, err := c.Client.Put(ctx, "/user/password", map[string]string{
		"oldPassword": oldPassword,
		"newPassword": newPassword,
	})
	if err != nil || !resp.OK() {
		c.fail(resp, err, "Error during updating password")
		return false
	}

	toast.Success(c.Notifier, "Password updated successfully")
	return true
}

// UpdateAvatar uploads a new avatar image and refreshes the stored user.
func (c *UserController) UpdateAvatar(ctx context.Context, filename string, file io.Reader) bool {
	resp, err := c.Client.PutMultipart(ctx, "/user/profile/avatar", "avatar", filename, file)
	if err != nil || !resp.OK() {
		c.fail(resp, err, "Error during uploading avatar")
		return false
	}

	var user store.User
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		c.logger().Error("api: avatar payload unparsable", "error", err)
		toast.Error(c.Notifier, "Error during uploading avatar")
		return false
	}

	c.Store.SetUser(&user)
	toast.Success(c.Notifier, "Avatar updated successfully")
	return true
}
