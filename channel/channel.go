// Package channel provides the chat front-ends: the terminal UI, a plain
// line-oriented fallback, and a browser page served over a websocket.
package channel

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/linanwx/askchat/logger"
)

// Channel is a chat front-end. Run blocks until the user leaves or ctx is
// cancelled. Every Run starts with an empty conversation.
type Channel interface {
	// Name returns the channel name (e.g., "cli", "web").
	Name() string

	// Run serves the chat until it ends.
	Run(ctx context.Context) error
}

// Manager runs a set of channels together.
type Manager struct {
	channels map[string]Channel
}

// NewManager creates a new channel manager.
func NewManager() *Manager {
	return &Manager{
		channels: make(map[string]Channel),
	}
}

// Register adds a channel to the manager and logs it. Nil is silently ignored.
func (m *Manager) Register(ch Channel) {
	if ch == nil {
		return
	}
	m.channels[ch.Name()] = ch
	logger.Info("channel registered", "channel", ch.Name())
}

// Names returns the registered channel names in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunAll runs every channel. When the first one returns, the others are
// cancelled; the first error, if any, is returned.
func (m *Manager) RunAll(ctx context.Context) error {
	if len(m.channels) == 0 {
		return fmt.Errorf("no channels registered")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range m.Names() {
		ch := m.channels[name]
		g.Go(func() error {
			defer cancel()
			if err := ch.Run(gctx); err != nil {
				return fmt.Errorf("%s channel: %w", ch.Name(), err)
			}
			logger.Info("channel stopped", "channel", ch.Name())
			return nil
		})
	}
	return g.Wait()
}
