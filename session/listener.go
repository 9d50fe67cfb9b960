package session

import (
	"github.com/moyoez/detectview/types"
)

// Listener receives session events. Calls happen outside the session lock and may
// arrive from the polling goroutine.
type Listener interface {
	SelectionChanged(sel *SelectionInfo) // nil when the selection was cleared
	PreviewReady(p Preview)
	StateChanged(snap Snapshot)
	Progress(taskID string, progress float64, message string)
	ResultReady(taskID string, rs *types.ResultSet)
}

// Notifier shows transient user notices.
type Notifier interface {
	Post(level types.NoticeLevel, message string) *types.Notice
}

// NopListener can be embedded to implement only part of Listener.
type NopListener struct{}

func (NopListener) SelectionChanged(*SelectionInfo) {}
func (NopListener) PreviewReady(Preview) {}
func (NopListener) StateChanged(Snapshot) {}
func (NopListener) Progress(string, float64, string) {}
func (NopListener) ResultReady(string, *types.ResultSet) {}

// Listeners fans events out to several listeners in order.
type Listeners []Listener

func (ls Listeners) SelectionChanged(sel *SelectionInfo) {
	for _, l := range ls {
		l.SelectionChanged(sel)
	}
}

func (ls Listeners) PreviewReady(p Preview) {
	for _, l := range ls {
		l.PreviewReady(p)
	}
}

func (ls Listeners) StateChanged(snap Snapshot) {
	for _, l := range ls {
		l.StateChanged(snap)
	}
}

func (ls Listeners) Progress(taskID string, progress float64, message string) {
	for _, l := range ls {
		l.Progress(taskID, progress, message)
	}
}

func (ls Listeners) ResultReady(taskID string, rs *types.ResultSet) {
	for _, l := range ls {
		l.ResultReady(taskID, rs)
	}
}
