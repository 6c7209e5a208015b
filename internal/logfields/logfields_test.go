package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Method", KeyMethod, "GET", Method("GET")},
		{"Path", KeyPath, "/admin", Path("/admin")},
		{"UserAgent", KeyUserAgent, "ua", UserAgent("ua")},
		{"RemoteAddr", KeyRemoteAddr, "1.2.3.4", RemoteAddr("1.2.3.4")},
		{"RequestID", KeyRequestID, "rid", RequestID("rid")},
		{"Route", KeyRoute, "/admin/{store_id}", Route("/admin/{store_id}")},
		{"Service", KeyService, "marketo", Service("marketo")},
		{"URL", KeyURL, "http://example", URL("http://example")},
		{"Store", KeyStore, "store-1", Store("store-1")},
		{"Org", KeyOrg, "canonical", Org("canonical")},
		{"Lead", KeyLead, "42", Lead("42")},
		{"BuildStatus", KeyBuild, "released", BuildStatus("released")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Status(200); v.Key != KeyStatus || v.Value.Int64() != 200 {
		t.Fatalf("Status mismatch: %v", v)
	}
	if v := Attempt(3); v.Key != KeyAttempt || v.Value.Int64() != 3 {
		t.Fatalf("Attempt mismatch: %v", v)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS || v.Value.Float64() != 12.5 {
		t.Fatalf("DurationMS mismatch: %v", v)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	if attr := Error(nil); attr.Key != KeyError || attr.Value.String() != "" {
		t.Fatalf("unexpected nil error attr: %v", attr)
	}
	if attr := Error(errors.New("boom")); attr.Value.String() != "boom" {
		t.Fatalf("unexpected error attr: %v", attr)
	}
}
