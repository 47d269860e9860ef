package platform

// WebhookPayload mirrors the dispatch platform's webhook body. Every
// field beyond the task reference and trigger is optional; the platform
// omits or nulls whatever a trigger doesn't carry.
type WebhookPayload struct {
	TaskID      string      `json:"taskId"`
	Time        int64       `json:"time"`
	TriggerName string      `json:"triggerName"`
	Data        PayloadData `json:"data"`
}

// PayloadData carries the event's task and worker context.
type PayloadData struct {
	Task   *TaskPayload   `json:"task"`
	Worker *WorkerPayload `json:"worker"`
}

// TaskPayload is the platform's view of the task an event concerns.
type TaskPayload struct {
	ShortID           string             `json:"shortId"`
	CompletionDetails *CompletionDetails `json:"completionDetails"`
	Worker            *WorkerPayload     `json:"worker"`
}

// CompletionDetails arrives only on completed events. The photo reference
// shows up in one of three shapes depending on the platform client
// version: a single upload id, an upload id list, or a raw attachment
// list. Driving metrics may still be null while the task is in flight.
type CompletionDetails struct {
	Time          *int64       `json:"time"`
	PhotoUploadID *string      `json:"photoUploadId"`
	PhotoUploadIDs []string    `json:"photoUploadIds"`
	Attachments   []Attachment `json:"attachments"`
	DriveDistance *float64     `json:"driveDistance"`
	DriveTime     *float64     `json:"driveTime"`
}

// Attachment is the raw fallback photo shape.
type Attachment struct {
	UploadID string `json:"uploadId"`
	Type     string `json:"type"`
}

// WorkerPayload identifies the worker an event came from.
type WorkerPayload struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
