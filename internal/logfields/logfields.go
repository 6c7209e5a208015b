package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyRequestID  = "request_id"
	KeyRoute      = "route"
	KeyService    = "service"
	KeyURL        = "url"
	KeyAttempt    = "attempt"
	KeyStore      = "store_id"
	KeyOrg        = "org"
	KeyLead       = "lead_id"
	KeyBuild      = "build_status"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func RequestID(id string) slog.Attr    { return slog.String(KeyRequestID, id) }
func Route(r string) slog.Attr         { return slog.String(KeyRoute, r) }
func Service(s string) slog.Attr       { return slog.String(KeyService, s) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func Store(id string) slog.Attr        { return slog.String(KeyStore, id) }
func Org(o string) slog.Attr           { return slog.String(KeyOrg, o) }
func Lead(id string) slog.Attr         { return slog.String(KeyLead, id) }
func BuildStatus(s string) slog.Attr   { return slog.String(KeyBuild, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
