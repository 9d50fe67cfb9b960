package types

import "time"

// Notification represents an event pushed to viewer clients over the notify websocket.
type Notification struct {
	Type    string         `json:"type,omitempty"`    // Notification type, e.g. "state", "progress", "notice"
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
}

const (
	NotifyTypeNotice    = "notice"
	NotifyTypeSelection = "selection"
	NotifyTypePreview   = "preview"
	NotifyTypeState     = "state"
	NotifyTypeProgress  = "progress"
	NotifyTypeResult    = "result"
	NotifyTypeStats     = "stats"
)

// NoticeLevel is the severity of a transient user notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeWarning NoticeLevel = "warning"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a transient, auto-dismissing user notification.
type Notice struct {
	ID        string      `json:"id"`
	Level     NoticeLevel `json:"level"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// NotifyHub receives notifications for broadcast (e.g. the websocket hub).
type NotifyHub interface {
	Broadcast(notification *Notification)
}
