package progress

// Status represents the lifecycle phase of an import job.
type Status string

const (
	StatusParsing   Status = "PARSING"
	StatusImporting Status = "IMPORTING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Entry is the published state of an import job. It is a liveness signal
// for polling clients, not an audit record; entries expire from the store.
type Entry struct {
	JobID     string `json:"job_id"`
	Status    Status `json:"status"`
	Percent   int    `json:"percent"`
	Processed int    `json:"processed_rows"`
	Total     int    `json:"total_rows"`
	Message   string `json:"message"`
}

// Percent computes the published completion percentage. COMPLETED forces
// 100; an unknown total reports 0; anything else is capped at 99 so a
// polling client never sees 100% before the job is actually finished.
func Percent(status Status, processed, total int) int {
	if status == StatusCompleted {
		return 100
	}
	if total <= 0 {
		return 0
	}
	percent := processed * 100 / total
	if percent > 99 {
		percent = 99
	}
	return percent
}
