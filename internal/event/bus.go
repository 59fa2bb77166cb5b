package event

import "sync"

type HandlerFunc func(raw any)

// Bus routes named events to handlers. Publish is synchronous: every handler
// has returned by the time Publish does.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]*Registry[any]
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string]*Registry[any]),
	}
}

func (b *Bus) Subscribe(eventName string, handler HandlerFunc) Token {
	if handler == nil {
		return Token{}
	}
	b.mu.Lock()
	reg, ok := b.handlers[eventName]
	if !ok {
		reg = NewRegistry[any](eventName)
		b.handlers[eventName] = reg
	}
	b.mu.Unlock()
	return reg.Add(handler)
}

func (b *Bus) Unsubscribe(eventName string, tok Token) bool {
	b.mu.RLock()
	reg, ok := b.handlers[eventName]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	return reg.Remove(tok)
}

func (b *Bus) Publish(eventName string, evt any) {
	b.mu.RLock()
	reg, ok := b.handlers[eventName]
	b.mu.RUnlock()
	if !ok {
		return
	}
	reg.Emit(evt)
}

// Close drops every subscription.
func (b *Bus) Close() {
	b.mu.Lock()
	for _, reg := range b.handlers {
		reg.Clear()
	}
	b.handlers = make(map[string]*Registry[any])
	b.mu.Unlock()
}
