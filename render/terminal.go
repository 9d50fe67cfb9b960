package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/moyoez/detectview/types"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("34"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("34")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// WriteTerminal prints the summary, per-layer counts and the filtered detection listing.
func WriteTerminal(w io.Writer, view ResultView, query string) error {
	view = view.Filter(query)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Detection result"))
	b.WriteString("\n")
	writeField(&b, "Task", view.TaskID)
	writeField(&b, "File", view.OriginalFile)
	writeField(&b, "Result image", view.ResultImage)
	writeField(&b, "Total detections", strconv.Itoa(view.TotalDetections))
	writeField(&b, "Average confidence", view.AverageText)

	if len(view.Layers) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Layers"))
		b.WriteString("\n")
		for _, l := range view.Layers {
			writeField(&b, l.Name, fmt.Sprintf("%d detections", l.Detections))
		}
	}

	b.WriteString("\n")
	switch {
	case len(view.Rows) == 0:
		b.WriteString(mutedStyle.Render("No objects detected"))
		b.WriteString("\n")
	case view.VisibleRows == 0:
		b.WriteString(mutedStyle.Render(fmt.Sprintf("No detections match %q", query)))
		b.WriteString("\n")
	default:
		rows := make([][]string, 0, view.VisibleRows)
		for _, r := range view.VisibleOnly() {
			rows = append(rows, []string{"#" + strconv.Itoa(r.Index), r.Class, r.ConfidenceText, "Layer " + string(r.Layer)})
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("#", "Class", "Confidence", "Layer").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// FormatStats renders the server status line shown next to the upload area.
func FormatStats(snap types.StatsSnapshot) string {
	status := "Initializing..."
	if snap.Stats.DetectorStatus == "ready" {
		status = "Ready"
	}
	if !snap.Reachable {
		status = "Unreachable"
	}
	gpu := "CPU mode"
	if snap.Stats.GPUAvailable {
		gpu = snap.Stats.GPUName
		if snap.Stats.GPUMemory != "" {
			gpu += " (" + snap.Stats.GPUMemory + ")"
		}
	}
	line := fmt.Sprintf("server: %s | device: %s | processed: %d | cache: %d | active: %d",
		status, gpu, snap.Stats.ProcessedImages, snap.Stats.CacheSize, snap.Stats.ActiveTasks)
	if snap.PingRTT > 0 {
		line += fmt.Sprintf(" | rtt: %s", snap.PingRTT)
	}
	return line
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString(labelStyle.Render(label + ":"))
	b.WriteString(" ")
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}
