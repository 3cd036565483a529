package provider

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Purab2001/CourseHub-client/internal/identity"
)

// Notifier implements the state-change stream shared by provider
// implementations. Events are delivered synchronously under a single
// lock, so listeners observe them in the order they occur.
type Notifier struct {
	mu        sync.Mutex
	listeners map[string]StateListener
}

func NewNotifier() *Notifier {
	return &Notifier{
		listeners: make(map[string]StateListener),
	}
}

// Subscribe registers fn and returns its disposer. The disposer is
// idempotent.
func (n *Notifier) Subscribe(fn StateListener) func() {
	id := uuid.NewString()

	n.mu.Lock()
	n.listeners[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.listeners, id)
		n.mu.Unlock()
	}
}

// Emit delivers ident to every registered listener.
func (n *Notifier) Emit(ident *identity.Identity) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, fn := range n.listeners {
		fn(ident)
	}
}
