package tasks

import "encoding/json"

// ---
// QUEUE DEFINITIONS
// ---
const (
	// QueuePipelineRun runs collect, persist and the pipeline batch for one niche.
	QueuePipelineRun = "q_pipeline_run"

	// QueueContactSync pushes a captured email to the mailing list.
	QueueContactSync = "q_contact_sync"
)

// All lists every queue the worker listens on.
var All = []string{QueuePipelineRun, QueueContactSync}

// ---
// TASK PAYLOADS
// ---

// PipelineRunPayload is the payload for QueuePipelineRun
type PipelineRunPayload struct {
	Niche string `json:"niche"`
	Limit int    `json:"limit"`
}

// ContactSyncPayload is the payload for QueueContactSync
type ContactSyncPayload struct {
	Email string `json:"email"`
}

// Marshal creates a JSON payload for a task.
func Marshal(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
