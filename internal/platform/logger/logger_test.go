package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVs_RedactsLearnerTextAndSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"code", "print('hi')",
		"authorization", "Bearer abc",
		"attempt_id", "a-1",
	})
	if len(out) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(out))
	}
	if out[1] != "[REDACTED]" || out[3] != "[REDACTED]" {
		t.Fatalf("expected redaction, got %v", out)
	}
	if out[5] != "a-1" {
		t.Fatalf("attempt_id should pass through, got %v", out[5])
	}
}

func TestSanitizeKVs_HashesUserIDs(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user_id", "4b1c5a44-0000-0000-0000-000000000000"})
	s, ok := out[1].(string)
	if !ok || !strings.HasPrefix(s, "hash:") || len(s) != len("hash:")+12 {
		t.Fatalf("expected hashed user id, got %v", out[1])
	}
}

func TestSanitizeKVs_OddLengthKeepsTrailingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"status", 200, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output %v", out)
	}
}

func TestNew_TestModeBuilds(t *testing.T) {
	l, err := New("test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.With("repo", "x").Debug("ignored")
	l.Sync()
}
