package api

import (
	"testing"

	"github.com/moyoez/detectview/session"
	"github.com/moyoez/detectview/types"
)

type captureHub struct {
	items []*types.Notification
}

func (h *captureHub) Broadcast(n *types.Notification) {
	h.items = append(h.items, n)
}

func TestBridgeEvents(t *testing.T) {
	hub := &captureHub{}
	b := NewBridge(hub)

	b.SelectionChanged(nil)
	b.StateChanged(session.Snapshot{State: session.StatePolling, Message: "Processing..."})
	b.Progress("task-1", 40, "Layer 2")
	b.ResultReady("task-1", &types.ResultSet{TaskID: "task-1", TotalDetections: 1,
		Detections: []types.Detection{{Class: "car", Confidence: 0.5, Layer: "1"}}})
	b.Stats(types.StatsSnapshot{Reachable: true, Stats: types.ServerStats{DetectorStatus: "ready"}})

	want := []string{
		types.NotifyTypeSelection,
		types.NotifyTypeState,
		types.NotifyTypeProgress,
		types.NotifyTypeResult,
		types.NotifyTypeStats,
	}
	if len(hub.items) != len(want) {
		t.Fatalf("Expected %d notifications, got %d", len(want), len(hub.items))
	}
	for i, typ := range want {
		if hub.items[i].Type != typ {
			t.Errorf("Notification %d: expected %s, got %s", i, typ, hub.items[i].Type)
		}
	}
	if hub.items[0].Data["selection"] != nil {
		t.Error("Expected nil selection for a cleared selection")
	}
	if hub.items[2].Data["progress"] != float64(40) {
		t.Errorf("Unexpected progress payload %+v", hub.items[2].Data)
	}
}
