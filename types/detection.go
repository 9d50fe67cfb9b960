package types

import (
	"bytes"
	"strconv"
)

// LayerID identifies the detection stage that produced a detection.
// The server sends it either as an integer or as a string tag.
type LayerID string

func (l *LayerID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*l = LayerID(s)
		return nil
	}
	*l = LayerID(data)
	return nil
}

func (l LayerID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseFloat(string(l), 64); err == nil {
		return []byte(l), nil
	}
	return []byte(strconv.Quote(string(l))), nil
}

// Detection is one recognized object instance.
type Detection struct {
	Class      string    `json:"class"`
	Confidence float64   `json:"confidence"`
	Layer      LayerID   `json:"layer"`
	BBox       []float64 `json:"bbox,omitempty"`
}

// LayerCount is the aggregate number of detections a layer contributed.
type LayerCount struct {
	Name       string `json:"name"`
	Detections int    `json:"detections"`
}

// ResultSet is the server response for a completed task (GET /results/{task_id}).
type ResultSet struct {
	TaskID          string       `json:"task_id,omitempty"`
	Timestamp       string       `json:"timestamp,omitempty"`
	OriginalFile    string       `json:"original_file,omitempty"`
	ResultImage     string       `json:"result_image,omitempty"`
	TotalDetections int          `json:"total_detections"`
	Detections      []Detection  `json:"detections"`
	Layers          []LayerCount `json:"layers"`
}
