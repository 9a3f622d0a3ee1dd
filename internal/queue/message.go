package queue

import "encoding/json"

// Job lifecycle events emitted to downstream consumers.
const (
	EventJobQueued    = "job.queued"
	EventJobCompleted = "job.completed"
	EventJobFailed    = "job.failed"
)

// Message is the payload sent to downstream queue consumers.
type Message struct {
	Event      string `json:"event"`
	JobKind    string `json:"jobKind"`
	JobID      string `json:"jobId"`
	TargetKey  string `json:"targetKey,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
	ErrorCode  string `json:"errorCode,omitempty"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
