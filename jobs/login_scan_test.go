package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
)

func TestNewLoginScanTask(t *testing.T) {
	task, err := NewLoginScanTask(30, 10)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if task.Type() != TaskAuditLoginScan {
		t.Fatalf("unexpected task type %q", task.Type())
	}
	var payload LoginScanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.WindowMinutes != 30 || payload.Threshold != 10 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestLoginScanSkipsRetryOnMalformedPayload(t *testing.T) {
	job := NewLoginScanJob(nil, nil, nil, nil)
	task := asynq.NewTask(TaskAuditLoginScan, []byte("{not json"))
	if err := job.Handle(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestLoginScanFailsWithoutPool(t *testing.T) {
	job := NewLoginScanJob(nil, nil, nil, nil)
	task, err := NewLoginScanTask(0, 0)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err == nil {
		t.Fatalf("expected configuration error without a pool")
	}
}
