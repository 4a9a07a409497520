package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordMatchAndReplayRoundTrip(t *testing.T) {
	db := openTestDB(t)

	id, err := db.RecordMatch("sess-1", "Sumo Ring", 2, 0, 3, 1, 12345, 205.7)
	if err != nil {
		t.Fatalf("record match: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive row id, got %d", id)
	}

	blob := []byte{0xde, 0xad, 0xbe, 0xef}
	if err := db.SaveReplay(id, ReplayVersion, blob); err != nil {
		t.Fatalf("save replay: %v", err)
	}

	got, err := db.GetReplay(id)
	if err != nil {
		t.Fatalf("get replay: %v", err)
	}
	if string(got) != string(blob) {
		t.Errorf("replay blob mismatch: %v", got)
	}

	// Overwrite keeps one row per match
	if err := db.SaveReplay(id, ReplayVersion, []byte{0x01}); err != nil {
		t.Fatalf("overwrite replay: %v", err)
	}
	got, _ = db.GetReplay(id)
	if len(got) != 1 || got[0] != 0x01 {
		t.Errorf("overwrite not applied: %v", got)
	}
}

func TestGetReplayMissing(t *testing.T) {
	db := openTestDB(t)
	got, err := db.GetReplay(9999)
	if err != nil {
		t.Fatalf("missing replay should not error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing replay, got %v", got)
	}
}

func TestRecentMatches(t *testing.T) {
	db := openTestDB(t)
	for i := 0; i < 5; i++ {
		if _, err := db.RecordMatch("sess", "m", -1, i%2, 3, 0, 100, 10); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	rows, err := db.RecentMatches(3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].SessionID != "sess" || rows[0].Wins0 != 3 {
		t.Errorf("unexpected row: %+v", rows[0])
	}
	if rows[0].AITier != -1 {
		t.Errorf("PvP match should carry tier -1, got %d", rows[0].AITier)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if v := db.GetSetting("nope"); v != "" {
		t.Errorf("missing setting should be empty, got %q", v)
	}
	if err := db.SetSetting("k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.SetSetting("k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v := db.GetSetting("k"); v != "v2" {
		t.Errorf("expected v2, got %q", v)
	}
}

func TestSlotTokenRoundTrip(t *testing.T) {
	db := openTestDB(t)
	auth := NewAuth(db)

	token, err := auth.IssueSlotToken("sess-42", 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sid, slot, err := auth.ValidateSlotToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if sid != "sess-42" || slot != 1 {
		t.Errorf("got (%q, %d)", sid, slot)
	}
}

func TestSlotTokenSecretPersists(t *testing.T) {
	db := openTestDB(t)

	token, err := NewAuth(db).IssueSlotToken("sess-7", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// A second Auth against the same database loads the same secret
	if _, _, err := NewAuth(db).ValidateSlotToken(token); err != nil {
		t.Errorf("token should survive an auth restart: %v", err)
	}
}

func TestSlotTokenTamperRejected(t *testing.T) {
	auth := NewAuth(nil)
	token, err := auth.IssueSlotToken("sess", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	forged := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, _, err := auth.ValidateSlotToken(forged); err == nil {
		t.Error("tampered signature should be rejected")
	}

	// A token signed under a different secret is also rejected
	other, _ := NewAuth(nil).IssueSlotToken("sess", 0)
	if _, _, err := auth.ValidateSlotToken(other); err == nil {
		t.Error("foreign-secret token should be rejected")
	}
}

func TestGuestNamesAreDistinct(t *testing.T) {
	a, b := GenerateGuestName(), GenerateGuestName()
	if !strings.HasPrefix(a, "Guest_") {
		t.Errorf("unexpected guest name %q", a)
	}
	if a == b {
		t.Errorf("consecutive guest names collided: %q", a)
	}
}
