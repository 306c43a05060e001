package match

import (
	"sort"
	"sync"
	"time"
)

// GameRecord is one finished game as remembered for streak computation.
type GameRecord struct {
	RoomID  int64
	Winner  string
	EndedAt time.Time
}

// RecordLog is a bounded in-memory per-player log of game outcomes. It
// only exists to answer win-streak queries; it is not game history.
type RecordLog struct {
	mu      sync.Mutex
	window  int
	records map[string][]GameRecord
}

// NewRecordLog keeps at most window records per player, dropping the
// oldest beyond that.
func NewRecordLog(window int) *RecordLog {
	return &RecordLog{
		window:  window,
		records: make(map[string][]GameRecord),
	}
}

// Append adds a record to a player's log.
func (l *RecordLog) Append(identity string, rec GameRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	records := append(l.records[identity], rec)
	if len(records) > l.window {
		records = records[len(records)-l.window:]
	}
	l.records[identity] = records
}

// WinStreak counts the player's consecutive wins in roomID, most recent
// first, stopping at the first record that is either a loss or belongs to
// a different room.
func (l *RecordLog) WinStreak(identity string, roomID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := make([]GameRecord, len(l.records[identity]))
	copy(records, l.records[identity])
	sort.Slice(records, func(i, j int) bool {
		return records[i].EndedAt.After(records[j].EndedAt)
	})

	streak := 0
	for _, rec := range records {
		if rec.RoomID != roomID || rec.Winner != identity {
			break
		}
		streak++
	}
	return streak
}
