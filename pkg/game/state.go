package game

import (
	"errors"
	"time"
)

const (
	// Rounds is the number of simultaneous-play exchanges in a game.
	Rounds = 10

	// MaxCard is the highest card value in each player's pool.
	MaxCard = 10

	// SentinelCard makes a round inconclusive no matter what it faces.
	SentinelCard = 1
)

// Side is one of the two fixed roles a player occupies for the lifetime of
// a room. The first joiner plays red, the second blue.
type Side string

const (
	SideRed  Side = "red"
	SideBlue Side = "blue"
)

// Result of resolving a completed round.
type Result int

const (
	Continue Result = iota
	RedWin
	BlueWin
	Draw
)

func (r Result) String() string {
	switch r {
	case RedWin:
		return "red_win"
	case BlueWin:
		return "blue_win"
	case Draw:
		return "draw"
	default:
		return "continue"
	}
}

// Terminal reports whether the result ends the game.
func (r Result) Terminal() bool {
	return r != Continue
}

var (
	ErrGameCompleted     = errors.New("game already completed")
	ErrCardAlreadyPlayed = errors.New("card already played this round")
	ErrInvalidCard       = errors.New("card value out of range")
	ErrRoundIncomplete   = errors.New("round not complete")
)

// State is the per-room round state machine. It is not safe for concurrent
// use; callers serialise access through the owning room.
type State struct {
	roomID    int64
	bet       int64
	round     int
	cardsRed  [Rounds]int
	cardsBlue [Rounds]int
	completed bool
	winner    string
	loser     string
	startedAt time.Time
	endedAt   time.Time
	recorded  bool
}

func NewState(bet int64) *State {
	return &State{bet: bet, startedAt: time.Now()}
}

func (s *State) RoomID() int64        { return s.roomID }
func (s *State) SetRoomID(id int64)   { s.roomID = id }
func (s *State) Bet() int64           { return s.bet }
func (s *State) Round() int           { return s.round }
func (s *State) Completed() bool      { return s.completed }
func (s *State) Winner() string       { return s.winner }
func (s *State) Loser() string        { return s.loser }
func (s *State) StartedAt() time.Time { return s.startedAt }
func (s *State) EndedAt() time.Time   { return s.endedAt }

// AddCard records a side's play for the current round. A round's card is
// write-once: replays and post-completion plays are rejected.
func (s *State) AddCard(side Side, value int) error {
	if s.completed {
		return ErrGameCompleted
	}
	if value < 1 || value > MaxCard {
		return ErrInvalidCard
	}
	cards := s.cards(side)
	if cards[s.round] != 0 {
		return ErrCardAlreadyPlayed
	}
	cards[s.round] = value
	return nil
}

func (s *State) cards(side Side) *[Rounds]int {
	if side == SideRed {
		return &s.cardsRed
	}
	return &s.cardsBlue
}

// Started reports whether any card has been played since the last reset.
func (s *State) Started() bool {
	return s.round > 0 || s.cardsRed[0] != 0 || s.cardsBlue[0] != 0
}

// RoundComplete reports whether both sides have played the current round.
func (s *State) RoundComplete() bool {
	return s.cardsRed[s.round] != 0 && s.cardsBlue[s.round] != 0
}

// CurrentCards returns both plays for the current round; zero means the
// side has not played yet.
func (s *State) CurrentCards() (red, blue int) {
	return s.cardsRed[s.round], s.cardsBlue[s.round]
}

// ResolveRound evaluates the current round once both cards are in:
//
//  1. A played 1 makes the round inconclusive regardless of the other card.
//  2. If the higher card is at least double the lower, its owner wins the
//     game outright.
//  3. On the final round the higher card wins; equal cards draw.
//  4. Otherwise the game continues to the next round.
//
// A terminal result marks the game completed.
func (s *State) ResolveRound() (Result, error) {
	red, blue := s.CurrentCards()
	if red == 0 || blue == 0 {
		return Continue, ErrRoundIncomplete
	}

	if red == SentinelCard || blue == SentinelCard {
		return Continue, nil
	}

	lo, hi := red, blue
	hiResult := BlueWin
	if blue < red {
		lo, hi = blue, red
		hiResult = RedWin
	}
	if hi >= 2*lo {
		s.completed = true
		return hiResult, nil
	}

	if s.round == Rounds-1 {
		s.completed = true
		switch {
		case red > blue:
			return RedWin, nil
		case blue > red:
			return BlueWin, nil
		default:
			return Draw, nil
		}
	}

	return Continue, nil
}

// NextRound advances the round index, never past the final round.
func (s *State) NextRound() {
	if s.round < Rounds-1 {
		s.round++
	}
}

// Reset clears all round and result state for a rematch, preserving the
// room id and bet.
func (s *State) Reset() {
	s.round = 0
	s.cardsRed = [Rounds]int{}
	s.cardsBlue = [Rounds]int{}
	s.completed = false
	s.winner = ""
	s.loser = ""
	s.endedAt = time.Time{}
	s.recorded = false
	s.startedAt = time.Now()
}

// RecordResult stamps the game's outcome. Recording is distinct from
// completion, which only governs play validity.
func (s *State) RecordResult(winner, loser string) {
	s.winner = winner
	s.loser = loser
	s.endedAt = time.Now()
	s.recorded = true
}

func (s *State) Recorded() bool { return s.recorded }
