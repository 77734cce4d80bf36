package share

import (
	"encoding/json"
	"testing"
)

func TestTargetEnvelope_Principal(t *testing.T) {
	raw, err := targetEnvelope("deadbeef", "")
	if err != nil {
		t.Fatalf("targetEnvelope() error = %v", err)
	}

	var decoded struct {
		Kind  string `json:"kind"`
		Bytes []byte `json:"bytes"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("failed to unmarshal envelope: %v", err)
	}
	if decoded.Kind != "principal" {
		t.Errorf("Kind = %q, want %q", decoded.Kind, "principal")
	}
	if string(decoded.Bytes) != "\xde\xad\xbe\xef" {
		t.Errorf("Bytes = %x, want deadbeef", decoded.Bytes)
	}
}

func TestTargetEnvelope_Opaque(t *testing.T) {
	raw, err := targetEnvelope("", "legacy-user-42")
	if err != nil {
		t.Fatalf("targetEnvelope() error = %v", err)
	}

	var decoded struct {
		Kind string `json:"kind"`
		Ref  string `json:"ref"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("failed to unmarshal envelope: %v", err)
	}
	if decoded.Kind != "opaque" {
		t.Errorf("Kind = %q, want %q", decoded.Kind, "opaque")
	}
	if decoded.Ref != "legacy-user-42" {
		t.Errorf("Ref = %q, want %q", decoded.Ref, "legacy-user-42")
	}
}

func TestTargetEnvelope_RejectsBoth(t *testing.T) {
	if _, err := targetEnvelope("deadbeef", "legacy-user-42"); err == nil {
		t.Error("targetEnvelope() with both principal and opaque set should error")
	}
}

func TestTargetEnvelope_RejectsNeither(t *testing.T) {
	if _, err := targetEnvelope("", ""); err == nil {
		t.Error("targetEnvelope() with neither principal nor opaque set should error")
	}
}

func TestTargetEnvelope_InvalidHex(t *testing.T) {
	if _, err := targetEnvelope("not-hex", ""); err == nil {
		t.Error("targetEnvelope() with invalid hex should error")
	}
}
