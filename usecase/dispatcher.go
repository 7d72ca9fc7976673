package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fastygo/datewheel/domain"
)

// CommandHandler mutates state; QueryHandler only reads. Both receive the
// raw positional arguments of the invocation.
type CommandHandler func(ctx context.Context, args []string) (any, error)
type QueryHandler func(ctx context.Context, args []string) (any, error)

type entry struct {
	usage   string
	command CommandHandler
	query   QueryHandler
}

// Dispatcher routes named operations to the use cases behind them. The CLI
// registers one entry per subcommand.
type Dispatcher struct {
	handlers map[string]entry
	mu       sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]entry)}
}

func (d *Dispatcher) RegisterCommand(name, usage string, handler CommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = entry{usage: usage, command: handler}
}

func (d *Dispatcher) RegisterQuery(name, usage string, handler QueryHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = entry{usage: usage, query: handler}
}

// Execute runs the handler registered under name.
func (d *Dispatcher) Execute(ctx context.Context, name string, args []string) (any, error) {
	d.mu.RLock()
	e, ok := d.handlers[name]
	d.mu.RUnlock()
	if !ok {
		return nil, domain.NewError(domain.ErrCodeNotFound, fmt.Sprintf("unknown command %q", name))
	}
	if e.command != nil {
		return e.command(ctx, args)
	}
	return e.query(ctx, args)
}

// IsCommand reports whether name is registered as a mutating operation.
func (d *Dispatcher) IsCommand(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[name].command != nil
}

// Usage returns "name usage" lines sorted by name.
func (d *Dispatcher) Usage() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%-10s %s", name, d.handlers[name].usage))
	}
	return lines
}
