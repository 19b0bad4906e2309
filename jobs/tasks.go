package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditLoginScan is the task type for the failed-login sweep.
	TaskAuditLoginScan = "audit:login_scan"
)

// LoginScanPayload controls the window and threshold of a failed-login sweep.
type LoginScanPayload struct {
	WindowMinutes int `json:"window_minutes"`
	Threshold     int `json:"threshold"`
}

// NewLoginScanTask constructs an Asynq task for the failed-login sweep.
func NewLoginScanTask(windowMinutes, threshold int) (*asynq.Task, error) {
	data, err := json.Marshal(LoginScanPayload{WindowMinutes: windowMinutes, Threshold: threshold})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditLoginScan, data), nil
}
