package api

import (
	"github.com/moyoez/detectview/render"
	"github.com/moyoez/detectview/session"
	"github.com/moyoez/detectview/types"
)

// Bridge turns session and monitor events into websocket notifications.
type Bridge struct {
	hub types.NotifyHub
}

func NewBridge(hub types.NotifyHub) *Bridge {
	return &Bridge{hub: hub}
}

func (b *Bridge) SelectionChanged(sel *session.SelectionInfo) {
	n := &types.Notification{Type: types.NotifyTypeSelection, Data: map[string]any{"selection": nil}}
	if sel != nil {
		n.Message = sel.Name
		n.Data["selection"] = sel
	}
	b.hub.Broadcast(n)
}

func (b *Bridge) PreviewReady(p session.Preview) {
	b.hub.Broadcast(&types.Notification{
		Type:    types.NotifyTypePreview,
		Message: p.Name,
		Data:    map[string]any{"preview": p},
	})
}

func (b *Bridge) StateChanged(snap session.Snapshot) {
	b.hub.Broadcast(StateNotification(snap))
}

func (b *Bridge) Progress(taskID string, progress float64, message string) {
	b.hub.Broadcast(&types.Notification{
		Type:    types.NotifyTypeProgress,
		Message: message,
		Data: map[string]any{
			"taskId":   taskID,
			"progress": progress,
		},
	})
}

func (b *Bridge) ResultReady(taskID string, rs *types.ResultSet) {
	view := render.Build(rs)
	b.hub.Broadcast(&types.Notification{
		Type:  types.NotifyTypeResult,
		Title: "Detection complete!",
		Data: map[string]any{
			"taskId": taskID,
			"result": view,
		},
	})
}

// Stats is a monitor subscriber.
func (b *Bridge) Stats(snap types.StatsSnapshot) {
	b.hub.Broadcast(&types.Notification{
		Type:    types.NotifyTypeStats,
		Message: render.FormatStats(snap),
		Data:    map[string]any{"snapshot": snap},
	})
}

// StateNotification wraps a snapshot; it is also the greeting for new websocket clients.
func StateNotification(snap session.Snapshot) *types.Notification {
	return &types.Notification{
		Type:    types.NotifyTypeState,
		Message: snap.Message,
		Data:    map[string]any{"state": snap},
	}
}
