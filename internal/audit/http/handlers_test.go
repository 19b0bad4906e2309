package audithttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linesalex/netinv/internal/audit"
)

type stubService struct {
	lastFilters audit.TimelineFilters
	entries     []audit.Entry
}

func (s *stubService) Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	s.lastFilters = filters
	return audit.Result{Entries: s.entries, Paging: audit.PagingInfo{Page: 1, PageSize: 20}}, nil
}

func (s *stubService) Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.Entry, error) {
	s.lastFilters = filters
	return s.entries, nil
}

func newTimelineFixture(t *testing.T, at time.Time) (*chi.Mux, *stubService) {
	t.Helper()
	svc := &stubService{entries: []audit.Entry{{
		ID: 1, ActorID: 2, TableName: "carriers", RecordID: "1",
		Action: "UPDATE", Summary: "name: A → B",
		IP: "10.0.0.1", UserAgent: "cli/1.0",
		CreatedAt: at.Add(-time.Hour),
	}}}
	handler := NewHandler(nil, svc, audit.NewExporter())
	handler.now = func() time.Time { return at }
	router := chi.NewRouter()
	handler.MountRoutes(router)
	return router, svc
}

func TestTimelineDefaultsToSevenDays(t *testing.T) {
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	router, svc := newTimelineFixture(t, at)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/audit", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if !svc.lastFilters.To.Equal(at) {
		t.Fatalf("expected To=now, got %v", svc.lastFilters.To)
	}
	if got := svc.lastFilters.To.Sub(svc.lastFilters.From); got != 7*24*time.Hour {
		t.Fatalf("expected 7 day default window, got %v", got)
	}
}

func TestTimelineParsesFilters(t *testing.T) {
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	router, svc := newTimelineFixture(t, at)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet,
		"/audit?from=2025-06-01&to=2025-06-08&actor_id=7&table=carriers&action=UPDATE&page=2&page_size=10", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	f := svc.lastFilters
	if f.ActorID != 7 || f.Table != "carriers" || f.Action != "UPDATE" || f.Page != 2 || f.PageSize != 10 {
		t.Fatalf("unexpected filters: %+v", f)
	}
	if f.From.Format("2006-01-02") != "2025-06-01" {
		t.Fatalf("unexpected from: %v", f.From)
	}
}

func TestTimelineRejectsBadRanges(t *testing.T) {
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	router, _ := newTimelineFixture(t, at)

	for _, target := range []string{
		"/audit?from=2025-06-08&to=2025-06-01",
		"/audit?from=2025-01-01&to=2025-06-10",
		"/audit?from=not-a-date",
		"/audit?actor_id=-3",
	} {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, target, nil))
		if res.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, res.Code)
		}
	}
}

func TestExportWritesCSVAttachment(t *testing.T) {
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	router, _ := newTimelineFixture(t, at)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/audit/export.csv", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if ct := res.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := res.Header().Get("Content-Disposition"); !strings.Contains(cd, "audit_trail.csv") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(res.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "name: A → B") {
		t.Fatalf("expected summary in export row: %q", lines[1])
	}
}
