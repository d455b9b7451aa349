// Package qr turns raw scanner payloads into appointment identifiers.
//
// Wall-mounted QR codes, printed slips, and hand-typed input all reach the
// dashboards through the same path, so the decoder accepts every encoding
// observed in the field: bare UUIDs, JSON envelopes, deep links, undashed
// hex, and base64 wrappings of any of those.
package qr

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
)

var (
	uuidExact  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	uuidSearch = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	hexExact   = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
	hexSearch  = regexp.MustCompile(`[0-9a-fA-F]{32}`)
)

// jsonKeys are the identifier field names accepted inside JSON payloads,
// matched case-insensitively.
var jsonKeys = []string{"appointment_id", "appointmentid", "id"}

// Extract parses a raw scanned payload into an appointment identifier.
// Candidate encodings are tried in a fixed order and the first success
// wins; ok is false when no identifier can be found. Extract is pure and
// never advances any workflow state itself.
func Extract(raw string) (id string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	// 1. JSON envelope with an identifier field.
	if id, ok := fromJSON(raw); ok {
		return id, true
	}

	// 2. Exact UUID.
	if uuidExact.MatchString(raw) {
		return raw, true
	}

	// 3. URL with an identifier query param or UUID path segment.
	if id, ok := fromURL(raw); ok {
		return id, true
	}

	// 4. Undashed 32-char hex, reformatted to canonical UUID shape.
	if hexExact.MatchString(raw) {
		return dashify(raw), true
	}

	// 5. Base64 wrapping: decode and start over from the JSON step.
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if id, ok := Extract(string(decoded)); ok {
			return id, true
		}
	}

	// 6. Embedded UUID anywhere in the payload.
	if m := uuidSearch.FindString(raw); m != "" {
		return m, true
	}

	// 7. Embedded undashed hex anywhere in the payload.
	if m := hexSearch.FindString(raw); m != "" {
		return dashify(m), true
	}

	return "", false
}

func fromJSON(raw string) (string, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return "", false
	}
	for _, want := range jsonKeys {
		for k, v := range obj {
			if strings.ToLower(k) != want {
				continue
			}
			if s, isStr := v.(string); isStr && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func fromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	q := u.Query()
	for _, key := range []string{"appointment_id", "id"} {
		if v := q.Get(key); v != "" && uuidExact.MatchString(v) {
			return v, true
		}
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) > 0 {
		if last := segs[len(segs)-1]; uuidExact.MatchString(last) {
			return last, true
		}
	}
	return "", false
}

// dashify inserts dashes at positions 8/12/16/20 of a 32-char hex string.
func dashify(hex string) string {
	hex = strings.ToLower(hex)
	return hex[0:8] + "-" + hex[8:12] + "-" + hex[12:16] + "-" + hex[16:20] + "-" + hex[20:32]
}

// IsCanonical reports whether s already has the canonical dashed UUID shape.
func IsCanonical(s string) bool {
	return uuidExact.MatchString(s)
}
