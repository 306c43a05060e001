package room

import (
	"errors"
	"sync"

	"github.com/tencard/match-backend/pkg/game"
)

var (
	// ErrRoomFull is returned when a third identity tries to join.
	ErrRoomFull = errors.New("room is full")

	// ErrIllegalCard is returned when a play is not in the player's
	// remaining card pool.
	ErrIllegalCard = errors.New("card not in player's pool")

	// ErrNotInRoom is returned for plays by identities without a slot.
	ErrNotInRoom = errors.New("player not in room")
)

// PlayerSlot is a seat in a room. The side is assigned on first join and
// never swaps, so a reconnecting player always resumes its original side.
type PlayerSlot struct {
	Identity string
	Side     game.Side
	Nickname string
	UserCode int64
	WinRate  int
}

// Room aggregates two player slots, one game state and the per-player
// legal-card pools. A single mutex serialises every compound mutation, so
// check-then-act sequences (room-full check, round resolution) are atomic
// per room.
type Room struct {
	mu sync.Mutex

	id      int64
	code    string
	players []*PlayerSlot
	state   *game.State
	pools   map[string]map[int]bool
}

func newRoom(id int64, code string, bet int64) *Room {
	state := game.NewState(bet)
	state.SetRoomID(id)
	return &Room{
		id:    id,
		code:  code,
		state: state,
		pools: make(map[string]map[int]bool),
	}
}

func (r *Room) ID() int64    { return r.id }
func (r *Room) Code() string { return r.code }

// Join seats an identity on the vacant side: red for the first joiner,
// whichever side the seated player does not hold otherwise. A seated
// identity rejoins its existing slot (reconnect); a third identity is
// rejected without mutating the room.
func (r *Room) Join(identity, nickname string, userCode int64, winRate int) (PlayerSlot, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.players {
		if p.Identity == identity {
			p.Nickname = nickname
			p.WinRate = winRate
			return *p, true, nil
		}
	}
	if len(r.players) >= 2 {
		return PlayerSlot{}, false, ErrRoomFull
	}

	side := game.SideRed
	if len(r.players) == 1 && r.players[0].Side == game.SideRed {
		side = game.SideBlue
	}
	slot := &PlayerSlot{
		Identity: identity,
		Side:     side,
		Nickname: nickname,
		UserCode: userCode,
		WinRate:  winRate,
	}
	r.players = append(r.players, slot)
	return *slot, false, nil
}

// Players returns a snapshot of the seated slots in join order.
func (r *Room) Players() []PlayerSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	players := make([]PlayerSlot, len(r.players))
	for i, p := range r.players {
		players[i] = *p
	}
	return players
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

func (r *Room) Slot(identity string) (PlayerSlot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.Identity == identity {
			return *p, true
		}
	}
	return PlayerSlot{}, false
}

// Opponent returns the slot of the other seated player, if any.
func (r *Room) Opponent(identity string) (PlayerSlot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.Identity != identity {
			return *p, true
		}
	}
	return PlayerSlot{}, false
}

// RemovePlayer unseats an identity and drops its card pool. The side of
// the remaining player is untouched.
func (r *Room) RemovePlayer(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.players {
		if p.Identity == identity {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	delete(r.pools, identity)
}

// ResetPools deals every seated player a fresh pool of card values 1..10.
func (r *Room) ResetPools() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetPoolsLocked()
}

func (r *Room) resetPoolsLocked() {
	for _, p := range r.players {
		pool := make(map[int]bool, game.MaxCard)
		for v := 1; v <= game.MaxCard; v++ {
			pool[v] = true
		}
		r.pools[p.Identity] = pool
	}
}

// RemainingCards reports how many cards an identity may still play.
func (r *Room) RemainingCards(identity string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pools[identity])
}

func (r *Room) Bet() int64 {
	return r.state.Bet()
}

// GameInProgress reports whether cards are on the table for a game that
// has not yet finished. A mid-game reconnect must not redeal pools.
func (r *Room) GameInProgress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.state.Completed() && r.state.Started()
}

func (r *Room) GameCompleted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Completed()
}

// PlayOutcome is a snapshot of the game state right after a play, taken
// under the room lock so broadcast code works from consistent values.
type PlayOutcome struct {
	Side          game.Side
	Round         int
	RoundComplete bool
	RedCard       int
	BlueCard      int
	Result        game.Result
}

// Play records a card for identity, consuming it from the player's pool,
// and resolves the round if this was its second card. On a non-terminal
// resolution the round index advances before the lock is released.
func (r *Room) Play(identity string, card int) (PlayOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var slot *PlayerSlot
	for _, p := range r.players {
		if p.Identity == identity {
			slot = p
			break
		}
	}
	if slot == nil {
		return PlayOutcome{}, ErrNotInRoom
	}
	if r.state.Completed() {
		return PlayOutcome{}, game.ErrGameCompleted
	}
	if pool, ok := r.pools[identity]; ok && !pool[card] {
		return PlayOutcome{}, ErrIllegalCard
	}
	if err := r.state.AddCard(slot.Side, card); err != nil {
		return PlayOutcome{}, err
	}
	delete(r.pools[identity], card)

	outcome := PlayOutcome{Side: slot.Side, Round: r.state.Round()}
	if !r.state.RoundComplete() {
		return outcome, nil
	}

	outcome.RoundComplete = true
	outcome.RedCard, outcome.BlueCard = r.state.CurrentCards()
	result, err := r.state.ResolveRound()
	if err != nil {
		return PlayOutcome{}, err
	}
	outcome.Result = result
	if !result.Terminal() {
		r.state.NextRound()
	}
	return outcome, nil
}

// SideIdentity returns the identity seated on a side.
func (r *Room) SideIdentity(side game.Side) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.Side == side {
			return p.Identity, true
		}
	}
	return "", false
}

// RecordResult stamps the game outcome on the room's state.
func (r *Room) RecordResult(winner, loser string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.RecordResult(winner, loser)
}

// ResetForRematch clears the game state and redeals the card pools. The
// room id, code, sides and bet survive.
func (r *Room) ResetForRematch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Reset()
	r.resetPoolsLocked()
}
