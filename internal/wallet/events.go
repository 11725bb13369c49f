package wallet

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind identifies a provider event
type EventKind int

const (
	// AccountsChanged fires when the exposed account list changes; an empty list means disconnected
	AccountsChanged EventKind = iota
	// ChainChanged fires after the active network changed
	ChainChanged
)

func (k EventKind) String() string {
	switch k {
	case AccountsChanged:
		return "accountsChanged"
	case ChainChanged:
		return "chainChanged"
	default:
		return "unknown"
	}
}

// Event is emitted by a Provider
type Event struct {
	Kind     EventKind
	Accounts []common.Address
	ChainID  *big.Int
}

// Listener receives provider events
type Listener func(Event)

// Emitter fans events out to subscribers. The zero value is ready to use.
type Emitter struct {
	mu        sync.Mutex
	next      int
	listeners map[int]Listener
}

// Subscribe registers l and returns a dispose function that is safe to call more than once
func (e *Emitter) Subscribe(l Listener) func() {
	e.mu.Lock()
	if e.listeners == nil {
		e.listeners = make(map[int]Listener)
	}
	id := e.next
	e.next++
	e.listeners[id] = l
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.listeners, id)
			e.mu.Unlock()
		})
	}
}

// Emit delivers ev to every listener registered at the time of the call
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	ls := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		ls = append(ls, l)
	}
	e.mu.Unlock()

	for _, l := range ls {
		l(ev)
	}
}

// Listeners returns the number of active subscriptions
func (e *Emitter) Listeners() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}
