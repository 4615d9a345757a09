// Package quill provides the public API for the Quill chat client runtime.
//
// This is the recommended import for most applications:
//
//	import "github.com/quill-chat/quill"
//
// Usage:
//
//	type TitleCard struct{ quill.Block }
//
//	func (c *TitleCard) Render() string {
//	    return `<div class="card">{{title}}</div>`
//	}
//
//	card := &TitleCard{}
//	card.Setup(card, quill.BlockOptions{Props: quill.Props{"title": "Hello"}})
package quill

import (
	"github.com/quill-chat/quill/pkg/block"
	"github.com/quill-chat/quill/pkg/chatsocket"
	"github.com/quill-chat/quill/pkg/dom"
	"github.com/quill-chat/quill/pkg/router"
	"github.com/quill-chat/quill/pkg/store"
	"github.com/quill-chat/quill/pkg/toast"
)

// =============================================================================
// Components (re-export from pkg/block)
// =============================================================================

// Block is the embeddable component base. Embed it in a struct, implement
// Render, and call Setup.
type Block = block.Block

// Component is the interface every block satisfies.
type Component = block.Component

// Props holds a component's template data.
type Props = block.Props

// Events maps CSS selectors to DOM handlers attached on every render.
type Events = block.Events

// BlockOptions configures Setup.
type BlockOptions = block.Options

// =============================================================================
// State (re-export from pkg/store)
// =============================================================================

// Store is the application state container.
type Store = store.Store

// State is the full application state snapshot.
type State = store.State

// Updated is the event emitted on every state change.
const Updated = store.Updated

// NewStore creates a store backed by the given persister.
var NewStore = store.New

// StoreDefault returns the process-wide store.
var StoreDefault = store.Default

// =============================================================================
// Chat socket (re-export from pkg/chatsocket)
// =============================================================================

// Session is the reconnect-aware chat connection manager.
type Session = chatsocket.Session

// SessionConfig configures NewSession.
type SessionConfig = chatsocket.Config

// NewSession creates a session manager.
var NewSession = chatsocket.New

// =============================================================================
// Routing (re-export from pkg/router)
// =============================================================================

// Router maps pathnames to component factories.
type Router = router.Router

// Route paths used by the built-in auth guards.
const (
	PathSignIn      = router.PathSignIn
	PathSignUp      = router.PathSignUp
	PathChats       = router.PathChats
	PathProfile     = router.PathProfile
	PathNotFound    = router.PathNotFound
	PathServerError = router.PathServerError
)

// NewRouter creates a router rendering into the given root element.
var NewRouter = router.New

// =============================================================================
// DOM and notifications
// =============================================================================

// Node is an element in the headless document tree.
type Node = dom.Node

// Event is a dispatched DOM event.
type Event = dom.Event

// Notifier receives user-visible notifications.
type Notifier = toast.Notifier
