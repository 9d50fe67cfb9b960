package types

import "time"

// ServerStats is the body of GET /stats.
type ServerStats struct {
	DetectorStatus  string `json:"detector_status"`
	GPUAvailable    bool   `json:"gpu_available"`
	GPUName         string `json:"gpu_name,omitempty"`
	GPUMemory       string `json:"gpu_memory,omitempty"`
	ProcessedImages int    `json:"processed_images"`
	ActiveTasks     int    `json:"active_tasks"`
	CacheSize       int    `json:"cache_size"`
}

// StatsSnapshot is the last good /stats response plus client-side observations.
type StatsSnapshot struct {
	Stats     ServerStats   `json:"stats"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Reachable bool          `json:"reachable"`
	PingRTT   time.Duration `json:"pingRtt,omitempty"`
	PingLoss  float64       `json:"pingLoss,omitempty"`
}
