package viz

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/monte/internal/campaign"
	"github.com/san-kum/monte/internal/completion"
	"github.com/san-kum/monte/internal/monte"
)

// CheckMsg carries one completion check to the view.
type CheckMsg struct {
	Campaign   string
	Run        int
	Conditions monte.Conditions
	Result     completion.Result
}

// DoneMsg reports that every campaign has finished.
type DoneMsg struct {
	Err error
}

// Feed moves completion checks from run loops to the view. Checks that
// evaluated convergence or finished a run are always delivered; plain cutoff
// ticks are dropped when the view falls behind.
type Feed struct {
	ch       chan tea.Msg
	stop     chan struct{}
	stopOnce sync.Once
	doneOnce sync.Once
}

func NewFeed(buffer int) *Feed {
	return &Feed{ch: make(chan tea.Msg, buffer), stop: make(chan struct{})}
}

// For returns an observer that tags checks with campaign name.
func (f *Feed) For(name string) campaign.Observer {
	return campaign.ObserverFunc(func(run int, conds monte.Conditions, res completion.Result) {
		msg := CheckMsg{Campaign: name, Run: run, Conditions: conds.Clone(), Result: res}
		if res.Checked || res.Complete {
			select {
			case f.ch <- msg:
			case <-f.stop:
			}
			return
		}
		select {
		case f.ch <- msg:
		default:
		}
	})
}

// Close delivers DoneMsg. Observers must not be called after Close.
func (f *Feed) Close(err error) {
	f.doneOnce.Do(func() {
		select {
		case f.ch <- DoneMsg{Err: err}:
		case <-f.stop:
		}
		close(f.ch)
	})
}

// Stop releases observers blocked on a view that is gone.
func (f *Feed) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
}

// Wait returns a command reading the next message.
func (f *Feed) Wait() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-f.ch
		if !ok {
			return nil
		}
		return msg
	}
}
