package store

import (
	"context"
	"testing"
)

func TestFindOrCreateUserDefaults(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u, err := s.FindOrCreateUser(ctx, "dev-1")
	if err != nil {
		t.Fatal(err)
	}
	if u.Bean != DefaultBean {
		t.Errorf("new user bean = %d, want %d", u.Bean, DefaultBean)
	}
	if u.Wins != 0 || u.Losses != 0 {
		t.Error("new user has non-zero stats")
	}

	// A second lookup returns the same record, not a fresh one.
	s.UpdateBalance(ctx, "dev-1", -100)
	u, _ = s.FindOrCreateUser(ctx, "dev-1")
	if u.Bean != DefaultBean-100 {
		t.Errorf("bean = %d after settlement, want %d", u.Bean, DefaultBean-100)
	}
}

func TestUpdateStatsAndNickname(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.UpdateStats(ctx, "dev-1", true)
	s.UpdateStats(ctx, "dev-1", true)
	s.UpdateStats(ctx, "dev-1", false)
	s.UpdateNickname(ctx, "dev-1", "Ada")

	u, _ := s.FindOrCreateUser(ctx, "dev-1")
	if u.Wins != 2 || u.Losses != 1 {
		t.Errorf("stats = %d/%d, want 2/1", u.Wins, u.Losses)
	}
	if u.Nickname != "Ada" {
		t.Errorf("nickname = %q, want Ada", u.Nickname)
	}
}

func TestWinRate(t *testing.T) {
	tests := []struct {
		name     string
		wins     int
		losses   int
		expected int
	}{
		{name: "unplayed", wins: 0, losses: 0, expected: 50},
		{name: "all wins", wins: 4, losses: 0, expected: 100},
		{name: "even", wins: 3, losses: 3, expected: 50},
		{name: "truncated", wins: 1, losses: 2, expected: 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &UserRecord{Wins: tt.wins, Losses: tt.losses}
			if got := u.WinRate(); got != tt.expected {
				t.Errorf("WinRate() = %d, want %d", got, tt.expected)
			}
		})
	}
}
