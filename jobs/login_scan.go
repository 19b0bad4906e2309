package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linesalex/netinv/internal/audit"
	jobmetrics "github.com/linesalex/netinv/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// LoginScanJob sweeps the activity trail for failed-login bursts. Sources that
// cross the threshold within the window are logged and written back into the
// trail as SECURITY_ALERT entries.
type LoginScanJob struct {
	Pool    *pgxpool.Pool
	Audits  *audit.Recorder
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewLoginScanJob initialises the failed-login sweep handler.
func NewLoginScanJob(pool *pgxpool.Pool, audits *audit.Recorder, logger *slog.Logger, metrics *jobmetrics.Metrics) *LoginScanJob {
	return &LoginScanJob{
		Pool:    pool,
		Audits:  audits,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the failed-login sweep.
func (j *LoginScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("login scan: handler not configured")
	}
	var payload LoginScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowMinutes <= 0 {
		payload.WindowMinutes = 60
	}
	if payload.Threshold <= 0 {
		payload.Threshold = 5
	}

	tracker := j.metrics().Track(TaskAuditLoginScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := j.now()
	logger := j.logger().With(
		slog.Int("window_minutes", payload.WindowMinutes),
		slog.Int("threshold", payload.Threshold),
	)
	logger.Info("starting failed-login sweep")

	sources, flagged, err := j.scan(ctx, payload, start)
	if err != nil {
		resultErr = err
		logger.Error("sweep failed", slog.Any("error", err))
		return resultErr
	}

	for _, f := range flagged {
		logger.Warn("failed-login burst detected",
			slog.String("kind", f.Kind),
			slog.String("source", f.Source),
			slog.Int("failures", f.Failures),
		)
		j.metrics().AddSuspicious(f.Kind, 1)
		if j.Audits != nil {
			j.Audits.RecordActivity(ctx, 0, "SECURITY_ALERT", map[string]any{
				"kind":           f.Kind,
				"source":         f.Source,
				"failures":       f.Failures,
				"window_minutes": payload.WindowMinutes,
			})
		}
	}

	logger.Info("completed failed-login sweep",
		slog.Int("sources", sources),
		slog.Int("flagged", len(flagged)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *LoginScanJob) scan(ctx context.Context, payload LoginScanPayload, now time.Time) (int, []loginBurst, error) {
	if j.Pool == nil {
		return 0, nil, errors.New("login scan: pool not configured")
	}
	from := now.Add(-time.Duration(payload.WindowMinutes) * time.Minute)
	rows, err := j.Pool.Query(ctx, `SELECT COALESCE(ip_address, ''), COALESCE(new_values::jsonb->>'username', '') FROM audit_logs WHERE table_name = 'user_activity' AND action = 'LOGIN_FAILED' AND created_at >= $1`, from)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	byIP := make(map[string]int)
	byUser := make(map[string]int)
	for rows.Next() {
		var ip, username string
		if err := rows.Scan(&ip, &username); err != nil {
			return 0, nil, err
		}
		if ip != "" && ip != audit.UnknownOrigin {
			byIP[ip]++
		}
		if username != "" {
			byUser[username]++
		}
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}

	flagged := make([]loginBurst, 0)
	for ip, n := range byIP {
		if n >= payload.Threshold {
			flagged = append(flagged, loginBurst{Kind: "ip", Source: ip, Failures: n})
		}
	}
	for username, n := range byUser {
		if n >= payload.Threshold {
			flagged = append(flagged, loginBurst{Kind: "username", Source: username, Failures: n})
		}
	}

	return len(byIP) + len(byUser), flagged, nil
}

func (j *LoginScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAuditLoginScan))
	}
	return slog.Default().With(slog.String("job", TaskAuditLoginScan))
}

func (j *LoginScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *LoginScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

type loginBurst struct {
	Kind     string
	Source   string
	Failures int
}

func (b loginBurst) String() string {
	return fmt.Sprintf("%s=%s failures=%d", b.Kind, b.Source, b.Failures)
}
