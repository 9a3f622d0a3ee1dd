package workerproc

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"procurement-backend/internal/queue"
	"procurement-backend/internal/shared/storage/object/local"
)

func TestParseMessage(t *testing.T) {
	payload, err := queue.EncodeMessage(queue.Message{
		Event:     queue.EventJobCompleted,
		JobKind:   "bulk_enhancement",
		JobID:     "job-1",
		RequestID: "req-1",
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	msg, meta, err := ParseMessage(string(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.JobID != "job-1" || msg.Event != queue.EventJobCompleted {
		t.Fatalf("parsed = %+v", msg)
	}
	if meta.BodyLen != len(payload) || meta.BodySHA == "" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestParseMessageErrors(t *testing.T) {
	var emptyErr ErrEmptyBody
	if _, _, err := ParseMessage("   "); !errors.As(err, &emptyErr) {
		t.Fatalf("err = %v, want ErrEmptyBody", err)
	}

	var decodeErr ErrDecode
	if _, _, err := ParseMessage("{broken"); !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}

	var missingErr ErrMissingJobID
	if _, _, err := ParseMessage(`{"event":"job.queued"}`); !errors.As(err, &missingErr) {
		t.Fatalf("err = %v, want ErrMissingJobID", err)
	}
}

func TestArchiverHandleMessage(t *testing.T) {
	dir := t.TempDir()
	archiver := NewArchiver(local.New(dir))

	payload, err := queue.EncodeMessage(queue.Message{
		Event: queue.EventJobFailed,
		JobID: "job-9",
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if err := archiver.HandleMessage(context.Background(), string(payload)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "job-events", "job-9", "*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("archived files = %v (err %v)", matches, err)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("archived body = %s", data)
	}
}

func TestArchiverRequiresStore(t *testing.T) {
	archiver := &Archiver{}
	if err := archiver.HandleMessage(context.Background(), `{"jobId":"x"}`); err == nil {
		t.Fatal("expected error without a store")
	}
}
