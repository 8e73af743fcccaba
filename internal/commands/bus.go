package commands

import (
	"context"
	"fmt"
	"sync"
)

// Bus routes a command to the handler registered for its type. Form posts and
// JSON calls build the same command and go through the same handler.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string]Handler)}
}

// Register binds handler to commandType. Registering a type twice is a wiring
// bug and panics.
func (b *Bus) Register(commandType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[commandType]; exists {
		panic(fmt.Sprintf("commands: handler for %q registered twice", commandType))
	}
	b.handlers[commandType] = handler
}

// Execute validates cmd and hands it to its handler. Invalid commands never
// reach a handler.
func (b *Bus) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := cmd.Validate(); err != nil {
		return Result{}, err
	}
	b.mu.RLock()
	h, ok := b.handlers[cmd.CommandType()]
	b.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.CommandType())
	}
	return h.Handle(ctx, cmd)
}
