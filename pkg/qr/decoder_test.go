package qr

import (
	"encoding/base64"
	"strings"
	"testing"
)

const sampleUUID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"

func TestExtract_ExactUUID(t *testing.T) {
	for _, s := range []string{
		sampleUUID,
		"F47AC10B-58CC-4372-A567-0E02B2C3D479",
		"00000000-0000-0000-0000-000000000000",
	} {
		got, ok := Extract(s)
		if !ok {
			t.Fatalf("Extract(%q) failed", s)
		}
		if got != s {
			t.Errorf("Extract(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestExtract_UndashedHex(t *testing.T) {
	hex := "f47ac10b58cc4372a5670e02b2c3d479"
	got, ok := Extract(hex)
	if !ok {
		t.Fatal("expected undashed hex to decode")
	}
	if got != sampleUUID {
		t.Errorf("got %q, want %q", got, sampleUUID)
	}
}

func TestExtract_JSONEnvelope(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"appointment_id":"` + sampleUUID + `"}`, sampleUUID},
		{`{"appointmentId":"abc-123"}`, "abc-123"},
		{`{"id":"` + sampleUUID + `"}`, sampleUUID},
		{`{"APPOINTMENT_ID":"xyz"}`, "xyz"},
	}
	for _, tc := range cases {
		got, ok := Extract(tc.raw)
		if !ok {
			t.Errorf("Extract(%q) failed", tc.raw)
			continue
		}
		if got != tc.want {
			t.Errorf("Extract(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestExtract_JSONFieldPriority(t *testing.T) {
	raw := `{"id":"other","appointment_id":"` + sampleUUID + `"}`
	got, ok := Extract(raw)
	if !ok || got != sampleUUID {
		t.Errorf("appointment_id should win over id, got %q ok=%v", got, ok)
	}
}

func TestExtract_URL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://hospital.example/visit?appointment_id=" + sampleUUID, sampleUUID},
		{"https://hospital.example/visit?id=" + sampleUUID, sampleUUID},
		{"https://hospital.example/appointments/" + sampleUUID, sampleUUID},
	}
	for _, tc := range cases {
		got, ok := Extract(tc.raw)
		if !ok {
			t.Errorf("Extract(%q) failed", tc.raw)
			continue
		}
		if got != tc.want {
			t.Errorf("Extract(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestExtract_URLWithoutUUID(t *testing.T) {
	if _, ok := Extract("https://hospital.example/about"); ok {
		t.Error("URL with no identifier should not decode")
	}
}

func TestExtract_Base64Idempotent(t *testing.T) {
	inner := []string{
		sampleUUID,
		`{"appointment_id":"` + sampleUUID + `"}`,
		"f47ac10b58cc4372a5670e02b2c3d479",
	}
	for _, s := range inner {
		direct, ok1 := Extract(s)
		wrapped, ok2 := Extract(base64.StdEncoding.EncodeToString([]byte(s)))
		if !ok1 || !ok2 {
			t.Fatalf("both direct and wrapped must decode for %q", s)
		}
		if direct != wrapped {
			t.Errorf("base64 wrapping changed result: %q vs %q", direct, wrapped)
		}
	}
}

func TestExtract_EmbeddedUUID(t *testing.T) {
	raw := "Appointment ref: " + sampleUUID + " (pharmacy)"
	got, ok := Extract(raw)
	if !ok || got != sampleUUID {
		t.Errorf("embedded UUID not found, got %q ok=%v", got, ok)
	}
}

func TestExtract_EmbeddedHex(t *testing.T) {
	raw := "ref=F47AC10B58CC4372A5670E02B2C3D479;dept=lab"
	got, ok := Extract(raw)
	if !ok || got != sampleUUID {
		t.Errorf("embedded hex not reformatted, got %q ok=%v", got, ok)
	}
}

func TestExtract_Garbage(t *testing.T) {
	for _, s := range []string{"", "   ", "hello world", "{not json}", "12345"} {
		if got, ok := Extract(s); ok {
			t.Errorf("Extract(%q) = %q, want failure", s, got)
		}
	}
}

func TestIsCanonical(t *testing.T) {
	if !IsCanonical(sampleUUID) {
		t.Error("sample UUID should be canonical")
	}
	if IsCanonical(strings.ReplaceAll(sampleUUID, "-", "")) {
		t.Error("undashed hex is not canonical")
	}
}
