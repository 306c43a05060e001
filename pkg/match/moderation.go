package match

import (
	"errors"
	"strings"
)

// ErrNicknameBlocked is returned for nicknames that fail the content check.
var ErrNicknameBlocked = errors.New("nickname contains a blocked word")

// ContentChecker validates player-supplied display names. Deployments can
// plug an external moderation service in behind this.
type ContentChecker interface {
	Check(nickname string) error
}

// Blocklist is a ContentChecker that rejects nicknames containing any of
// a fixed set of words, case-insensitively.
type Blocklist struct {
	words []string
}

func NewBlocklist(words []string) *Blocklist {
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}
	return &Blocklist{words: lowered}
}

func (b *Blocklist) Check(nickname string) error {
	lowered := strings.ToLower(nickname)
	for _, w := range b.words {
		if strings.Contains(lowered, w) {
			return ErrNicknameBlocked
		}
	}
	return nil
}
