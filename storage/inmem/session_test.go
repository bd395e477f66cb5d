package inmemdb

import (
	"testing"
	"time"
)

func TestRevocationList(t *testing.T) {
	now := time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRevocationList()
	rl.now = func() time.Time { return now }

	rl.Revoke("a", now.Add(time.Hour))
	if !rl.IsRevoked("a") {
		t.Error("IsRevoked(a) = false after Revoke")
	}
	if rl.IsRevoked("b") {
		t.Error("IsRevoked(b) = true, never revoked")
	}

	// expired ids are dropped on the next revocation
	now = now.Add(2 * time.Hour)
	rl.Revoke("b", now.Add(time.Hour))
	if rl.IsRevoked("a") {
		t.Error("IsRevoked(a) = true after its token expired")
	}
	if !rl.IsRevoked("b") {
		t.Error("IsRevoked(b) = false after Revoke")
	}
}
