package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Store persists audit entries.
type Store interface {
	Insert(ctx context.Context, entry Entry) error
}

// Change describes a single audited mutation.
type Change struct {
	ActorID  int64
	Table    string
	RecordID string
	Action   string
	Old      map[string]any
	New      map[string]any
	Origin   Origin
}

// Recorder writes the audit trail. Writes are fire-and-forget: a failed
// insert is logged and swallowed so it can never abort or roll back the
// operation it accompanies.
type Recorder struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder constructs a Recorder.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:  store,
		logger: logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Record persists one audit entry for the given change.
func (r *Recorder) Record(ctx context.Context, ch Change) {
	if r == nil || r.store == nil {
		return
	}
	entry := Entry{
		ActorID:   ch.ActorID,
		TableName: ch.Table,
		RecordID:  ch.RecordID,
		Action:    ch.Action,
		OldValues: marshalState(ch.Old),
		NewValues: marshalState(ch.New),
		Summary:   Summarize(ch.Action, ch.Old, ch.New),
		IP:        originOrUnknown(ch.Origin.IP),
		UserAgent: originOrUnknown(ch.Origin.UserAgent),
		CreatedAt: r.now(),
	}
	if err := r.store.Insert(ctx, entry); err != nil {
		r.logger.Error("audit write failed",
			slog.String("table", ch.Table),
			slog.String("action", ch.Action),
			slog.Any("error", err),
		)
	}
}

// RecordActivity is the simplified entry point for non-CRUD security events
// such as logins. The module is fixed to the user_activity label and details
// become the new-state payload; the network origin is pulled from details or
// defaults to the Unknown sentinel.
func (r *Recorder) RecordActivity(ctx context.Context, userID int64, action string, details map[string]any) {
	origin := Origin{
		IP:        stringDetail(details, "ip"),
		UserAgent: stringDetail(details, "user_agent"),
	}
	r.Record(ctx, Change{
		ActorID:  userID,
		Table:    ActivityTable,
		RecordID: strconv.FormatInt(userID, 10),
		Action:   action,
		New:      details,
		Origin:   origin,
	})
}

// Summarize builds the human-readable diff between two states. Only keys
// enumerated in the new state that also exist in the old state are compared;
// each differing key yields one "field: old → new" fragment. Absent states
// or an empty diff fall back to "<action> operation".
func Summarize(action string, oldState, newState map[string]any) string {
	if len(oldState) == 0 || len(newState) == 0 {
		return action + " operation"
	}
	keys := make([]string, 0, len(newState))
	for k := range newState {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var fragments []string
	for _, k := range keys {
		oldVal, ok := oldState[k]
		if !ok {
			continue
		}
		newVal := newState[k]
		if fmt.Sprint(oldVal) == fmt.Sprint(newVal) {
			continue
		}
		fragments = append(fragments, fmt.Sprintf("%s: %v → %v", k, oldVal, newVal))
	}
	if len(fragments) == 0 {
		return action + " operation"
	}
	return strings.Join(fragments, ", ")
}

func marshalState(state map[string]any) string {
	if state == nil {
		return ""
	}
	data, err := json.Marshal(state)
	if err != nil {
		return ""
	}
	return string(data)
}

func stringDetail(details map[string]any, key string) string {
	if v, ok := details[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return UnknownOrigin
}

func originOrUnknown(v string) string {
	if v == "" {
		return UnknownOrigin
	}
	return v
}
