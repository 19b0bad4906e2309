package audit

import (
	"net"
	"net/http"
	"time"
)

// Reserved labels used across the audit trail.
const (
	// ActivityTable is the module label for non-CRUD security events.
	ActivityTable = "user_activity"
	// UnknownOrigin is the sentinel recorded when no network origin is known.
	UnknownOrigin = "Unknown"
)

// Entry is one immutable row of the audit trail. Entries are created exactly
// once per mutating operation or security-relevant activity and are never
// updated or deleted.
type Entry struct {
	ID        int64     `json:"id"`
	ActorID   int64     `json:"actor_id"`
	TableName string    `json:"table_name"`
	RecordID  string    `json:"record_id"`
	Action    string    `json:"action"`
	OldValues string    `json:"old_values,omitempty"`
	NewValues string    `json:"new_values,omitempty"`
	Summary   string    `json:"changes_summary"`
	IP        string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// Origin carries the network origin of the audited request.
type Origin struct {
	IP        string
	UserAgent string
}

// OriginFromRequest extracts the caller's IP and client string.
func OriginFromRequest(r *http.Request) Origin {
	if r == nil {
		return Origin{IP: UnknownOrigin, UserAgent: UnknownOrigin}
	}
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if ip == "" {
		ip = UnknownOrigin
	}
	ua := r.UserAgent()
	if ua == "" {
		ua = UnknownOrigin
	}
	return Origin{IP: ip, UserAgent: ua}
}
