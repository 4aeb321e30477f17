package model

import (
	"fmt"
	"time"
)

// DownloadTask is one unit of work dispatched to a worker process: render a
// page and save it to a pre-computed output path.
//
// SavePath is fixed during the planning phase, before any worker starts, so
// no two workers can ever target the same file.
type DownloadTask struct {
	// TaskID is a synthetic identifier stamped by the pool at dispatch
	// time from the worker ID and a timestamp. It exists only for log
	// correlation; retries of the same page get fresh task IDs.
	TaskID string `json:"task_id"`

	// PageID is the ID of the PageNode being downloaded.
	PageID string `json:"page_id"`

	// URL is the page URL to render.
	URL string `json:"url"`

	// SavePath is the absolute path the rendered document is written to.
	SavePath string `json:"save_path"`

	// Attempts counts how many times this task has been dispatched.
	Attempts int `json:"attempts"`
}

// StampTaskID assigns the synthetic task identifier for a dispatch to the
// given worker.
func (t *DownloadTask) StampTaskID(workerID int, now time.Time) {
	t.TaskID = fmt.Sprintf("w%d-%d", workerID, now.UnixNano())
}

// Cookie is one browser session cookie captured during discovery and
// broadcast read-only to every worker before downloads begin.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path,omitempty"`
	Secure bool   `json:"secure,omitempty"`
}
