// Package store holds the record-store contract the match coordinator
// settles against, with in-memory, MongoDB and Redis implementations.
package store

import "context"

// DefaultBean is the bean balance granted to a first-seen identity.
const DefaultBean = 1000

// UserRecord is a player's persistent profile.
type UserRecord struct {
	Identity string `bson:"identity" json:"identity"`
	Nickname string `bson:"nickname" json:"nickname"`
	Wins     int    `bson:"wins" json:"wins"`
	Losses   int    `bson:"losses" json:"losses"`
	Bean     int64  `bson:"bean" json:"bean"`
}

// WinRate is the record's win percentage for display, 50 when unplayed.
func (u *UserRecord) WinRate() int {
	total := u.Wins + u.Losses
	if total == 0 {
		return 50
	}
	return u.Wins * 100 / total
}

// Store is the narrow profile contract the coordinator consumes. All
// implementations must be safe for concurrent use.
type Store interface {
	// FindOrCreateUser returns the record for identity, creating it with
	// DefaultBean on first sight.
	FindOrCreateUser(ctx context.Context, identity string) (*UserRecord, error)

	// UpdateStats bumps the win or loss counter.
	UpdateStats(ctx context.Context, identity string, won bool) error

	// UpdateBalance applies a bean delta, negative for the loser's stake.
	UpdateBalance(ctx context.Context, identity string, delta int64) error

	// UpdateNickname persists the player's display name.
	UpdateNickname(ctx context.Context, identity, nickname string) error
}
