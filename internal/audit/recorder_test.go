package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memoryStore struct {
	entries []Entry
	err     error
}

func (s *memoryStore) Insert(ctx context.Context, entry Entry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func TestSummarizeSingleField(t *testing.T) {
	got := Summarize("UPDATE",
		map[string]any{"name": "A", "status": "active"},
		map[string]any{"name": "B", "status": "active"},
	)
	if got != "name: A → B" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestSummarizeSortsAndJoins(t *testing.T) {
	got := Summarize("UPDATE",
		map[string]any{"status": "active", "name": "A", "region": "EU"},
		map[string]any{"status": "inactive", "name": "B", "region": "EU"},
	)
	if got != "name: A → B, status: active → inactive" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestSummarizeFallbacks(t *testing.T) {
	cases := []struct {
		name string
		old  map[string]any
		new  map[string]any
		want string
	}{
		{"nil old state", nil, map[string]any{"name": "A"}, "UPDATE operation"},
		{"nil new state", map[string]any{"name": "A"}, nil, "UPDATE operation"},
		{"identical states", map[string]any{"name": "A"}, map[string]any{"name": "A"}, "UPDATE operation"},
		{"disjoint keys", map[string]any{"name": "A"}, map[string]any{"status": "active"}, "UPDATE operation"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Summarize("UPDATE", tc.old, tc.new); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestRecordBuildsEntry(t *testing.T) {
	store := &memoryStore{}
	rec := NewRecorder(store, nil)
	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return at }

	rec.Record(context.Background(), Change{
		ActorID:  4,
		Table:    "carriers",
		RecordID: "17",
		Action:   "UPDATE",
		Old:      map[string]any{"name": "Acme"},
		New:      map[string]any{"name": "Acme Networks"},
		Origin:   Origin{IP: "10.0.0.9", UserAgent: "cli/1.0"},
	})

	if len(store.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(store.entries))
	}
	entry := store.entries[0]
	if entry.ActorID != 4 || entry.TableName != "carriers" || entry.RecordID != "17" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Summary != "name: Acme → Acme Networks" {
		t.Fatalf("unexpected summary: %q", entry.Summary)
	}
	if entry.OldValues != `{"name":"Acme"}` || entry.NewValues != `{"name":"Acme Networks"}` {
		t.Fatalf("unexpected state payloads: %q / %q", entry.OldValues, entry.NewValues)
	}
	if !entry.CreatedAt.Equal(at) {
		t.Fatalf("expected injected timestamp, got %v", entry.CreatedAt)
	}
}

func TestRecordActivityDefaultsOrigin(t *testing.T) {
	store := &memoryStore{}
	rec := NewRecorder(store, nil)

	rec.RecordActivity(context.Background(), 0, "LOGIN_FAILED", map[string]any{"username": "ghost"})

	if len(store.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(store.entries))
	}
	entry := store.entries[0]
	if entry.TableName != ActivityTable {
		t.Fatalf("expected %s table, got %s", ActivityTable, entry.TableName)
	}
	if entry.ActorID != 0 || entry.RecordID != "0" {
		t.Fatalf("expected anonymous actor, got %+v", entry)
	}
	if entry.IP != UnknownOrigin || entry.UserAgent != UnknownOrigin {
		t.Fatalf("expected Unknown origin sentinels, got %q / %q", entry.IP, entry.UserAgent)
	}
	if entry.Summary != "LOGIN_FAILED operation" {
		t.Fatalf("unexpected summary: %q", entry.Summary)
	}
}

func TestRecordSwallowsStoreFailure(t *testing.T) {
	store := &memoryStore{err: errors.New("connection refused")}
	rec := NewRecorder(store, nil)

	// Must not panic or surface the failure.
	rec.Record(context.Background(), Change{ActorID: 1, Table: "carriers", RecordID: "1", Action: "CREATE"})
	rec.RecordActivity(context.Background(), 1, "LOGIN", nil)
}
