package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nao1215/crawldash/internal/coordinator"
)

// eventBuffer is the number of undelivered events kept before senders block.
const eventBuffer = 64

// settledMsg is sent when a crawl settles.
type settledMsg struct {
	settlement coordinator.Settlement
}

// alertMsg carries a blocking alert for the user.
type alertMsg struct {
	message string
}

// Events forwards dashboard callbacks into the bubbletea program.
// Register Settled with coordinator.WithSettleFunc and pass Events as the
// dashboard Notifier. After Close, events are dropped.
type Events struct {
	ch        chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once
}

// NewEvents creates an Events.
func NewEvents() *Events {
	return &Events{
		ch:   make(chan tea.Msg, eventBuffer),
		done: make(chan struct{}),
	}
}

// Settled forwards a crawl settlement.
func (e *Events) Settled(s coordinator.Settlement) {
	e.send(settledMsg{settlement: s})
}

// Alert implements dashboard.Notifier.
func (e *Events) Alert(message string) {
	e.send(alertMsg{message: message})
}

// Close stops delivery. It is safe to call more than once.
func (e *Events) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
	})
}

func (e *Events) send(msg tea.Msg) {
	select {
	case <-e.done:
	case e.ch <- msg:
	}
}

// wait returns a command that delivers the next event.
// The model re-issues it after every event.
func (e *Events) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-e.done:
			return nil
		case msg := <-e.ch:
			return msg
		}
	}
}
