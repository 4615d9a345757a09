// Package router maps path strings to Block components: one lazily built
// instance per path, shown and hidden on navigation instead of being
// re-instantiated.
//
// Start applies the auth guards: unauthenticated users are redirected away
// from private paths, authenticated users away from auth-only paths.
package router

import (
	"log/slog"
	"sync"

	"github.com/quill-chat/quill/pkg/block"
	"github.com/quill-chat/quill/pkg/dom"
	"github.com/quill-chat/quill/pkg/store"
)

// Application paths.
const (
	PathSignIn      = "/"
	PathSignUp      = "/sign-up"
	PathChats       = "/messenger"
	PathProfile     = "/settings"
	PathNotFound    = "/404"
	PathServerError = "/500"
)

// authPaths are reachable only while signed out.
var authPaths = map[string]bool{
	PathSignIn: true,
	PathSignUp: true,
}

// openPaths are reachable without authentication.
var openPaths = map[string]bool{
	PathSignIn:      true,
	PathSignUp:      true,
	PathNotFound:    true,
	PathServerError: true,
}

// Factory builds a route's component on first visit.
type Factory func() block.Component

// Route binds one path to one component instance.
type Route struct {
	pathname  string
	factory   Factory
	component block.Component
	root      *dom.Node
}

// Match reports whether the route serves the path.
func (r *Route) Match(pathname string) bool {
	return r.pathname == pathname
}

// Render builds the component on first visit and attaches it to the root;
// later visits just show the existing instance.
func (r *Route) Render() {
	if r.component == nil {
		r.component = r.factory()
		if el := r.component.Element(); el != nil && r.root != nil {
			r.root.AppendChild(el)
		}
		r.component.DispatchComponentDidMount()
		return
	}
	r.component.Show()
}

// Leave hides the route's component without destroying it.
func (r *Route) Leave() {
	if r.component != nil {
		r.component.Hide()
	}
}

// Component returns the route's component, nil before the first visit.
func (r *Route) Component() block.Component {
	return r.component
}

// Router navigates between registered routes.
type Router struct {
	mu      sync.Mutex
	routes  []*Route
	current *Route
	root    *dom.Node
	store   *store.Store
	logger  *slog.Logger

	history []string
	idx     int
}

// New creates a router rendering into root and consulting st for the auth
// guards.
func New(root *dom.Node, st *store.Store) *Router {
	return &Router{
		root:    root,
		store:   st,
		logger:  slog.Default(),
		history: []string{PathSignIn},
	}
}

var (
	defaultMu     sync.Mutex
	defaultRouter *Router
)

// Configure installs the process-wide router.
func Configure(root *dom.Node, st *store.Store) *Router {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRouter = New(root, st)
	return defaultRouter
}

// Default returns the process-wide router, or nil before Configure.
func Default() *Router {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultRouter
}

// Reset discards the process-wide router. Test harnesses call this between
// cases.
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRouter = nil
}

// Use registers a path. Chainable.
func (r *Router) Use(pathname string, factory Factory) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, &Route{pathname: pathname, factory: factory, root: r.root})
	return r
}

// Start applies the auth guards to the current path and renders it.
func (r *Router) Start() {
	pathname := r.CurrentPath()

	if !r.isAuthenticated() && !openPaths[pathname] {
		r.Go(PathSignIn)
		return
	}
	if r.isAuthenticated() && authPaths[pathname] {
		r.Go(PathChats)
		return
	}

	r.onRoute(pathname)
}

func (r *Router) isAuthenticated() bool {
	if r.store == nil {
		return false
	}
	return r.store.GetState().User != nil
}

// Go navigates to the path, pushing a history entry.
func (r *Router) Go(pathname string) {
	r.mu.Lock()
	r.history = append(r.history[:r.idx+1], pathname)
	r.idx = len(r.history) - 1
	r.mu.Unlock()

	r.onRoute(pathname)
}

// Back navigates one history entry back.
func (r *Router) Back() {
	r.mu.Lock()
	if r.idx == 0 {
		r.mu.Unlock()
		return
	}
	r.idx--
	pathname := r.history[r.idx]
	r.mu.Unlock()

	r.onRoute(pathname)
}

// Forward navigates one history entry forward.
func (r *Router) Forward() {
	r.mu.Lock()
	if r.idx >= len(r.history)-1 {
		r.mu.Unlock()
		return
	}
	r.idx++
	pathname := r.history[r.idx]
	r.mu.Unlock()

	r.onRoute(pathname)
}

// CurrentPath returns the path at the history cursor.
func (r *Router) CurrentPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[r.idx]
}

func (r *Router) getRoute(pathname string) *Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, route := range r.routes {
		if route.Match(pathname) {
			return route
		}
	}
	return nil
}

func (r *Router) onRoute(pathname string) {
	route := r.getRoute(pathname)
	if route == nil {
		route = r.getRoute(PathNotFound)
	}
	if route == nil {
		r.logger.Warn("router: no route", "path", pathname)
		return
	}

	r.mu.Lock()
	current := r.current
	r.current = route
	r.mu.Unlock()

	if current != nil && current != route {
		current.Leave()
	}
	route.Render()
}
