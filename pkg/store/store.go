// Package store holds the process-wide application state: user, chats,
// messages, auth token, and the active chat.
//
// Every mutation replaces the whole state record, persists a serialized
// snapshot, and synchronously emits Updated(prev, next) before the mutator
// returns. The store is the single source of truth; components re-render
// from its snapshots.
package store

import (
	"log/slog"
	"sync"

	"github.com/quill-chat/quill/pkg/eventbus"
)

// Updated is emitted after every mutation with (prev State, next State).
const Updated = "Updated"

// Store is the application state container.
type Store struct {
	*eventbus.Bus[string]

	mu        sync.Mutex
	tailMu    sync.Mutex // orders persistence and Updated behind the state sequence
	state     State
	persister Persister
	logger    *slog.Logger
}

// New creates a store backed by the given persister, loading the persisted
// snapshot when one exists and falling back to an empty state otherwise.
func New(p Persister) *Store {
	s := &Store{
		Bus:       eventbus.New[string](),
		persister: p,
		logger:    slog.Default(),
	}
	if p != nil {
		if loaded, ok, err := p.Load(); err != nil {
			s.logger.Error("store: snapshot load failed", "error", err)
		} else if ok {
			s.state = loaded
		}
	}
	return s
}

var (
	defaultMu    sync.Mutex
	defaultStore *Store
)

// Default returns the process-wide store, constructing it on first use with
// in-memory persistence. Use Configure to install durable persistence
// before anything touches the store.
func Default() *Store {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultStore == nil {
		defaultStore = New(NewMemoryPersister())
	}
	return defaultStore
}

// Configure replaces the process-wide store with one backed by the given
// persister. It must run before the first Default call.
func Configure(p Persister) *Store {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultStore = New(p)
	return defaultStore
}

// Reset discards the process-wide store. Test harnesses call this between
// cases.
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultStore = nil
}

// GetState returns the current full state, read-only by convention.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetUser replaces the authenticated user.
func (s *Store) SetUser(user *User) {
	s.set(func(next *State) { next.User = user })
}

// SetChats replaces the chat list.
func (s *Store) SetChats(chats []Chat) {
	s.set(func(next *State) { next.Chats = chats })
}

// SetMessages replaces the messages sequence (newest-first).
func (s *Store) SetMessages(messages []Message) {
	s.set(func(next *State) { next.Messages = messages })
}

// ClearMessages empties the messages sequence.
func (s *Store) ClearMessages() {
	s.set(func(next *State) { next.Messages = []Message{} })
}

// SetToken replaces the short-lived chat token.
func (s *Store) SetToken(token string) {
	s.set(func(next *State) { next.Token = token })
}

// SetActiveChat marks exactly one chat active by id and zeroes its unread
// counter; other chats keep their unread counts.
func (s *Store) SetActiveChat(chatID int) {
	s.set(func(next *State) {
		for i := range next.Chats {
			active := next.Chats[i].ID == chatID
			next.Chats[i].IsActive = active
			if active {
				next.Chats[i].UnreadCount = 0
			}
		}
		next.ActiveChat = &ActiveChat{ID: chatID}
	})
}

// ClearActiveChat deactivates every chat and drops the active-chat marker.
func (s *Store) ClearActiveChat() {
	s.set(func(next *State) {
		for i := range next.Chats {
			next.Chats[i].IsActive = false
		}
		next.ActiveChat = nil
	})
}

// AddMessage prepends a message (newest-first) and, when the message belongs
// to the active chat, refreshes that chat's last-message preview.
func (s *Store) AddMessage(message Message) {
	s.set(func(next *State) {
		next.Messages = append([]Message{message}, next.Messages...)

		for i := range next.Chats {
			if !next.Chats[i].IsActive {
				continue
			}
			lm := next.Chats[i].LastMessage
			if lm == nil {
				lm = &LastMessage{}
			} else {
				copied := *lm
				lm = &copied
			}
			lm.Content = message.Content
			lm.Time = message.Time
			next.Chats[i].LastMessage = lm
		}
	})
}

// set applies a mutation to a copy of the state, persists the result, and
// emits Updated(prev, next) before returning. tailMu is acquired while mu is
// still held, so concurrent mutators reach the persister and the listeners
// in the same order their states were committed: the durable snapshot can
// never regress behind GetState, and Updated pairs arrive chained. Updated
// listeners may read the store but must not mutate it synchronously.
func (s *Store) set(mutate func(*State)) {
	s.mu.Lock()
	prev := s.state.clone()
	next := s.state.clone()
	mutate(&next)
	s.state = next
	s.tailMu.Lock()
	s.mu.Unlock()
	defer s.tailMu.Unlock()

	if s.persister != nil {
		if err := s.persister.Save(next); err != nil {
			s.logger.Error("store: snapshot save failed", "error", err)
		}
	}

	s.Emit(Updated, prev, next)
}
