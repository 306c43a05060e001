package room

import (
	"errors"
	"testing"

	"github.com/tencard/match-backend/pkg/game"
)

func newTwoPlayerRoom(t *testing.T) *Room {
	t.Helper()
	rm := newRoom(10000, "4396", 100)
	if _, _, err := rm.Join("red-player", "Ada", 10000, 50); err != nil {
		t.Fatal(err)
	}
	if _, _, err := rm.Join("blue-player", "Bee", 10001, 50); err != nil {
		t.Fatal(err)
	}
	rm.ResetPools()
	return rm
}

func TestPlayConsumesCardPool(t *testing.T) {
	rm := newTwoPlayerRoom(t)

	if _, err := rm.Play("red-player", 5); err != nil {
		t.Fatal(err)
	}
	if got := rm.RemainingCards("red-player"); got != game.MaxCard-1 {
		t.Errorf("red pool = %d cards, want %d", got, game.MaxCard-1)
	}

	// The same value cannot be played twice in one game instance.
	rm.Play("blue-player", 6)
	if _, err := rm.Play("red-player", 5); !errors.Is(err, ErrIllegalCard) {
		t.Errorf("replaying a spent card = %v, want ErrIllegalCard", err)
	}
}

func TestPlayRoundFlow(t *testing.T) {
	rm := newTwoPlayerRoom(t)

	outcome, err := rm.Play("red-player", 6)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.RoundComplete {
		t.Error("round reported complete after one card")
	}

	outcome, err = rm.Play("blue-player", 7)
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.RoundComplete {
		t.Fatal("round not complete after both cards")
	}
	if outcome.RedCard != 6 || outcome.BlueCard != 7 {
		t.Errorf("revealed cards %d/%d, want 6/7", outcome.RedCard, outcome.BlueCard)
	}
	if outcome.Result != game.Continue {
		t.Errorf("result = %v, want continue", outcome.Result)
	}
	if outcome.Round != 0 {
		t.Errorf("outcome round = %d, want 0", outcome.Round)
	}

	// The next play lands in round 1.
	outcome, err = rm.Play("red-player", 2)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Round != 1 {
		t.Errorf("round index = %d after continue, want 1", outcome.Round)
	}
}

func TestPlayTerminalResult(t *testing.T) {
	rm := newTwoPlayerRoom(t)

	rm.Play("red-player", 2)
	outcome, err := rm.Play("blue-player", 10)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Result != game.BlueWin {
		t.Fatalf("result = %v, want blue_win", outcome.Result)
	}
	if !rm.GameCompleted() {
		t.Error("game not completed after terminal result")
	}

	// Further plays are rejected once the game completed.
	if _, err := rm.Play("red-player", 9); !errors.Is(err, game.ErrGameCompleted) {
		t.Errorf("play after completion = %v, want ErrGameCompleted", err)
	}
}

func TestPlayByOutsider(t *testing.T) {
	rm := newTwoPlayerRoom(t)
	if _, err := rm.Play("stranger", 5); !errors.Is(err, ErrNotInRoom) {
		t.Errorf("outsider play = %v, want ErrNotInRoom", err)
	}
}

func TestResetForRematchRedealsPools(t *testing.T) {
	rm := newTwoPlayerRoom(t)
	rm.Play("red-player", 2)
	rm.Play("blue-player", 10)
	rm.RecordResult("blue-player", "red-player")

	rm.ResetForRematch()

	if rm.GameCompleted() {
		t.Error("game still completed after rematch reset")
	}
	if got := rm.RemainingCards("red-player"); got != game.MaxCard {
		t.Errorf("red pool = %d cards after redeal, want %d", got, game.MaxCard)
	}
	if rm.Bet() != 100 {
		t.Error("rematch reset changed the bet")
	}
}

func TestJoinAfterLeaveTakesVacantSide(t *testing.T) {
	tests := []struct {
		name     string
		leaver   string
		expected game.Side
	}{
		{name: "red left", leaver: "red-player", expected: game.SideRed},
		{name: "blue left", leaver: "blue-player", expected: game.SideBlue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := newTwoPlayerRoom(t)
			rm.RemovePlayer(tt.leaver)

			slot, _, err := rm.Join("late-player", "Cal", 10002, 50)
			if err != nil {
				t.Fatal(err)
			}
			if slot.Side != tt.expected {
				t.Fatalf("late joiner side = %v, want vacant side %v",
					slot.Side, tt.expected)
			}
			// Exactly one player per side, so the game can proceed.
			if _, ok := rm.SideIdentity(game.SideRed); !ok {
				t.Error("room has no red side")
			}
			if _, ok := rm.SideIdentity(game.SideBlue); !ok {
				t.Error("room has no blue side")
			}

			rm.ResetPools()
			if _, err := rm.Play("late-player", 5); err != nil {
				t.Errorf("late joiner's play rejected: %v", err)
			}
		})
	}
}

func TestRemovePlayerKeepsOpponentSide(t *testing.T) {
	rm := newTwoPlayerRoom(t)
	rm.RemovePlayer("red-player")

	if rm.PlayerCount() != 1 {
		t.Fatalf("player count = %d, want 1", rm.PlayerCount())
	}
	slot, ok := rm.Slot("blue-player")
	if !ok || slot.Side != game.SideBlue {
		t.Error("remaining player lost its original side")
	}
	if _, ok := rm.Opponent("blue-player"); ok {
		t.Error("removed player still returned as opponent")
	}
}
