package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/quill-chat/quill/pkg/router"
	"github.com/quill-chat/quill/pkg/toast"
)

// Navigator is the slice of the router the controllers need.
type Navigator interface {
	Go(pathname string)
}

// Deps are the collaborators shared by all controllers.
type Deps struct {
	Client   *Client
	Notifier toast.Notifier
	Nav      Navigator
	Logger   *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// fail classifies a controller failure and surfaces it: 400 shows the
// server's reason as a validation-style toast, 401 forces a sign-in
// redirect, 5xx redirects to the server-error page, anything else shows the
// fallback message. Transport errors show the fallback. Every failure is
// logged; none is silently swallowed.
func (d *Deps) fail(resp Response, err error, fallback string) {
	if err != nil {
		d.logger().Error("api: request failed", "error", err, "context", fallback)
		toast.Error(d.Notifier, fallback)
		return
	}

	d.logger().Error("api: request rejected", "status", resp.Status, "context", fallback)

	switch {
	case resp.Status == http.StatusBadRequest:
		toast.Error(d.Notifier, reasonOr(resp.Body, fallback))

	case resp.Status == http.StatusUnauthorized:
		if d.Nav != nil {
			d.Nav.Go(router.PathSignIn)
		}

	case resp.Status >= http.StatusInternalServerError:
		if d.Nav != nil {
			d.Nav.Go(router.PathServerError)
		}

	default:
		toast.Error(d.Notifier, fallback)
	}
}

// reasonOr extracts the API's {"reason": "..."} message, falling back when
// the body has some other shape.
func reasonOr(body []byte, fallback string) string {
	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Reason != "" {
		return payload.Reason
	}
	return fallback
}
