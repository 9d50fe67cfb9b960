// Package render projects detection results into display rows. Nothing here
// touches the network or session state.
package render

import (
	"fmt"
	"strings"

	"github.com/moyoez/detectview/types"
)

// Row is one entry of the detection listing.
type Row struct {
	Index          int           `json:"index"`
	Class          string        `json:"class"`
	Confidence     float64       `json:"confidence"`
	ConfidenceText string        `json:"confidenceText"`
	Layer          types.LayerID `json:"layer"`
	Text           string        `json:"text"`
	Visible        bool          `json:"visible"`
}

// LayerRow is one entry of the per-layer statistics.
type LayerRow struct {
	Name       string `json:"name"`
	Detections int    `json:"detections"`
	Text       string `json:"text"`
}

// ResultView is everything the result panel shows.
type ResultView struct {
	TaskID            string     `json:"taskId,omitempty"`
	OriginalFile      string     `json:"originalFile,omitempty"`
	Timestamp         string     `json:"timestamp,omitempty"`
	ResultImage       string     `json:"resultImage,omitempty"`
	TotalDetections   int        `json:"totalDetections"`
	AverageConfidence float64    `json:"averageConfidence"` // percent, 0..100
	AverageText       string     `json:"averageText"`
	Layers            []LayerRow `json:"layers"`
	Rows              []Row      `json:"rows"`
	Query             string     `json:"query,omitempty"`
	VisibleRows       int        `json:"visibleRows"`
}

// Build projects rs into a ResultView. A nil rs yields an empty view.
func Build(rs *types.ResultSet) ResultView {
	view := ResultView{
		Layers:      []LayerRow{},
		Rows:        []Row{},
		AverageText: FormatPercent(0),
	}
	if rs == nil {
		return view
	}

	view.TaskID = rs.TaskID
	view.OriginalFile = rs.OriginalFile
	view.Timestamp = rs.Timestamp
	view.ResultImage = rs.ResultImage
	view.TotalDetections = rs.TotalDetections

	view.AverageConfidence = AverageConfidence(rs.Detections) * 100
	view.AverageText = FormatPercent(view.AverageConfidence)

	for _, l := range rs.Layers {
		view.Layers = append(view.Layers, LayerRow{
			Name:       l.Name,
			Detections: l.Detections,
			Text:       fmt.Sprintf("%s: %d detections", l.Name, l.Detections),
		})
	}

	for i, d := range rs.Detections {
		row := Row{
			Index:          i + 1,
			Class:          d.Class,
			Confidence:     d.Confidence,
			ConfidenceText: FormatPercent(d.Confidence * 100),
			Layer:          d.Layer,
			Visible:        true,
		}
		row.Text = rowText(row)
		view.Rows = append(view.Rows, row)
	}
	view.VisibleRows = len(view.Rows)
	return view
}

// AverageConfidence is the arithmetic mean of the detection confidences, 0 when empty.
func AverageConfidence(detections []types.Detection) float64 {
	if len(detections) == 0 {
		return 0
	}
	var sum float64
	for _, d := range detections {
		sum += d.Confidence
	}
	return sum / float64(len(detections))
}

// FormatPercent renders a percentage with one decimal, e.g. 70.0%.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func rowText(r Row) string {
	return strings.Join([]string{
		fmt.Sprintf("#%d", r.Index),
		r.Class,
		r.ConfidenceText,
		"Layer " + string(r.Layer),
	}, " ")
}
