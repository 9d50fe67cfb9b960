package render

import "strings"

// Filter returns a copy of the view whose rows are marked visible when their display
// text contains query, case-insensitively. An empty query shows every row.
func (v ResultView) Filter(query string) ResultView {
	out := v
	out.Query = query
	out.Rows = make([]Row, len(v.Rows))
	needle := strings.ToLower(query)
	visible := 0
	for i, r := range v.Rows {
		r.Visible = strings.Contains(strings.ToLower(r.Text), needle)
		if r.Visible {
			visible++
		}
		out.Rows[i] = r
	}
	out.VisibleRows = visible
	return out
}

// VisibleOnly returns the rows currently marked visible.
func (v ResultView) VisibleOnly() []Row {
	rows := make([]Row, 0, v.VisibleRows)
	for _, r := range v.Rows {
		if r.Visible {
			rows = append(rows, r)
		}
	}
	return rows
}
