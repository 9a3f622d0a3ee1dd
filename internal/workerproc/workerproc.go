package workerproc

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"procurement-backend/internal/queue"
	"procurement-backend/internal/shared/storage/object"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingJobID indicates a message missing the job id.
type ErrMissingJobID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingJobID) Error() string { return "missing job id" }

// ErrArchive indicates archiving failed after successful parsing.
type ErrArchive struct {
	JobID     string
	Event     string
	RequestID string
	Err       error
}

func (e ErrArchive) Error() string {
	if e.Err == nil {
		return "archive job event"
	}
	return "archive job event: " + e.Err.Error()
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.JobID) == "" {
		return msg, meta, ErrMissingJobID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// Archiver persists job lifecycle events for later audit.
type Archiver struct {
	Store object.ObjectStore
	now   func() time.Time
}

// NewArchiver constructs an Archiver over an object store.
func NewArchiver(store object.ObjectStore) *Archiver {
	return &Archiver{
		Store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// HandleMessage parses a queue payload and archives the event.
func (a *Archiver) HandleMessage(ctx context.Context, body string) error {
	if a == nil || a.Store == nil {
		return errors.New("event archive not configured")
	}

	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("job-events/%s/%s-%s.json", msg.JobID, msg.Event, a.now().Format("20060102T150405.000Z0700"))
	if _, err := a.Store.SaveWithKey(ctx, key, "application/json", bytes.NewReader([]byte(body))); err != nil {
		return ErrArchive{JobID: msg.JobID, Event: msg.Event, RequestID: msg.RequestID, Err: err}
	}
	return nil
}
