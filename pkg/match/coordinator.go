// Package match sequences the two-player card game protocol: it maps
// inbound messages and transport events onto room, game-state and
// record-store mutations, and fans the results back out to the players.
package match

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tencard/match-backend/pkg/comms"
	"github.com/tencard/match-backend/pkg/game"
	"github.com/tencard/match-backend/pkg/protocol"
	"github.com/tencard/match-backend/pkg/room"
	"github.com/tencard/match-backend/pkg/store"
	"go.uber.org/zap"
)

const (
	// storeTimeout bounds every record-store call; the store is an
	// external collaborator and must not stall a room.
	storeTimeout = 5 * time.Second

	// recordWindow bounds the per-player streak log.
	recordWindow = 32

	opponentLeaveMessage = "Your opponent left the room"
	beanNotEnoughStart   = "A player does not have enough beans to start the game"
	beanNotEnoughRematch = "A player does not have enough beans for a rematch"
)

// Coordinator owns the protocol sequencing for every room. One instance
// serves the whole process; all registries are dependency-injected.
type Coordinator struct {
	log       *zap.Logger
	registry  *comms.Registry
	directory *room.Directory
	store     store.Store
	checker   ContentChecker
	caster    *Broadcaster
	records   *RecordLog

	// leaving serialises leave handling per identity: a concurrent
	// duplicate leave is a no-op while one is in flight.
	leaving sync.Map
}

func NewCoordinator(
	log *zap.Logger,
	registry *comms.Registry,
	directory *room.Directory,
	st store.Store,
	checker ContentChecker,
) *Coordinator {
	return &Coordinator{
		log:       log,
		registry:  registry,
		directory: directory,
		store:     st,
		checker:   checker,
		caster:    NewBroadcaster(log, registry),
		records:   NewRecordLog(recordWindow),
	}
}

// HandleOpen registers a freshly opened connection for identity, closing
// any connection it supersedes, and makes sure the player's record exists.
func (c *Coordinator) HandleOpen(ctx context.Context, identity string, conn comms.Conn) {
	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if _, err := c.store.FindOrCreateUser(sctx, identity); err != nil {
		c.log.Error("Unable to ensure user record on connect",
			zap.String("identity", identity), zap.Error(err))
	}

	c.registry.Register(identity, conn)
	c.log.Info("Player connected", zap.String("identity", identity))
}

// HandleClose processes a transport-level close. Unlike an explicit
// leave_room it never closes the opponent's connection; it only notifies
// the opponent and cleans up the leaver, and only if the closing
// connection was not already superseded by a reconnect.
func (c *Coordinator) HandleClose(conn comms.Conn) {
	identity, ok := c.registry.ResolveIdentity(conn)
	if !ok {
		return
	}
	if !c.registry.Remove(identity, conn) {
		// A reconnect already replaced this connection.
		return
	}
	c.log.Info("Player disconnected", zap.String("identity", identity))

	rm, ok := c.directory.RoomByIdentity(identity)
	if !ok {
		return
	}
	if rm.PlayerCount() == 2 {
		if opp, ok := rm.Opponent(identity); ok {
			c.caster.Send(opp.Identity, protocol.OpponentLeave{
				Message: opponentLeaveMessage,
			})
		}
	}
	c.cleanupPlayer(identity, rm)
}

// HandleError processes a transport-level error on a connection.
func (c *Coordinator) HandleError(conn comms.Conn, err error) {
	c.log.Error("Connection errored", zap.Error(err))
	c.HandleClose(conn)
}

// Dispatch routes one inbound message from an authenticated connection.
// The inbound set is closed, so the switch is exhaustive. Messages that
// carry an identity must claim the one the connection authenticated as.
func (c *Coordinator) Dispatch(ctx context.Context, identity string, msg protocol.Inbound) {
	switch m := msg.(type) {
	case protocol.JoinRoom:
		if !c.verifySender(identity, m.Identity) {
			return
		}
		c.handleJoinRoom(ctx, m)
	case protocol.PlayCard:
		if !c.verifySender(identity, m.Identity) {
			return
		}
		c.handlePlayCard(ctx, m)
	case protocol.LeaveRoom:
		c.handleLeaveRoom(identity)
	case protocol.RematchRequest:
		c.handleRematchRequest(identity)
	case protocol.RematchAccept:
		c.handleRematchAccept(ctx, identity)
	case protocol.RematchReject:
		c.handleRematchReject(identity)
	}
}

// verifySender rejects messages claiming a different player's identity
// than the one their connection authenticated as.
func (c *Coordinator) verifySender(authenticated, claimed string) bool {
	if authenticated == claimed {
		return true
	}
	c.log.Warn("Dropping message claiming another player's identity",
		zap.String("identity", authenticated),
		zap.String("claimed", claimed))
	return false
}

func (c *Coordinator) handleJoinRoom(ctx context.Context, m protocol.JoinRoom) {
	nickname := strings.TrimSpace(m.Nickname)
	if nickname == "" {
		c.caster.Send(m.Identity, protocol.NicknameError{
			Message: "Nickname must not be empty",
		})
		return
	}
	if err := c.checker.Check(nickname); err != nil {
		c.log.Warn("Rejected nickname",
			zap.String("identity", m.Identity), zap.Error(err))
		c.caster.Send(m.Identity, protocol.NicknameError{
			Message: "Nickname contains a blocked word, pick another",
		})
		return
	}

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	winRate := 50
	user, err := c.store.FindOrCreateUser(sctx, m.Identity)
	if err != nil {
		// Joining still proceeds; the profile is display data here.
		c.log.Error("Unable to ensure user record on join",
			zap.String("identity", m.Identity), zap.Error(err))
	} else {
		winRate = user.WinRate()
	}
	if err := c.store.UpdateNickname(sctx, m.Identity, nickname); err != nil {
		c.log.Error("Unable to persist nickname",
			zap.String("identity", m.Identity), zap.Error(err))
	}

	rm, _, reconnect, err := c.directory.JoinOrCreate(m.RoomCode, m.Identity, nickname, winRate)
	if errors.Is(err, room.ErrRoomFull) {
		c.caster.Send(m.Identity, protocol.RoomFull{})
		return
	}
	if err != nil {
		c.log.Error("Join failed",
			zap.String("identity", m.Identity), zap.Error(err))
		return
	}

	if rm.PlayerCount() < 2 {
		c.caster.Broadcast(rm, protocol.RoomState{Players: playerInfos(rm)})
		return
	}

	if !c.playersFunded(ctx, rm) {
		c.caster.Broadcast(rm, protocol.BeanNotEnough{Message: beanNotEnoughStart})
		c.log.Warn("Game start blocked, bean not enough",
			zap.Int64("roomID", rm.ID()))
		return
	}

	if reconnect && rm.GameInProgress() {
		// Mid-game reconnect: resend the ready state, keep the pools.
		c.caster.Send(m.Identity, protocol.GameReady{
			Players: playerInfos(rm),
			RoomID:  rm.ID(),
		})
		return
	}

	rm.ResetPools()
	c.caster.Broadcast(rm, protocol.GameReady{
		Players: playerInfos(rm),
		RoomID:  rm.ID(),
	})
	c.log.Info("Game ready",
		zap.String("roomID", room.DisplayID(rm.ID())),
		zap.String("code", rm.Code()))
}

func (c *Coordinator) handlePlayCard(ctx context.Context, m protocol.PlayCard) {
	rm, ok := c.directory.RoomByIdentity(m.Identity)
	if !ok {
		c.log.Warn("Play from identity without a room",
			zap.String("identity", m.Identity))
		return
	}

	outcome, err := rm.Play(m.Identity, m.Card)
	switch {
	case errors.Is(err, game.ErrGameCompleted):
		// Late plays after the result are expected noise.
		return
	case err != nil:
		c.log.Warn("Rejected play",
			zap.String("identity", m.Identity),
			zap.Int("card", m.Card),
			zap.Error(err))
		return
	}

	if !outcome.RoundComplete {
		if opp, ok := rm.Opponent(m.Identity); ok {
			c.caster.Send(opp.Identity, protocol.PleaseTakeCard{})
		}
		return
	}

	// Reveal the round side-relative to each player.
	for _, p := range rm.Players() {
		reveal := protocol.RoundComplete{
			Round:   outcome.Round,
			MyCard:  outcome.RedCard,
			OppCard: outcome.BlueCard,
		}
		if p.Side == game.SideBlue {
			reveal.MyCard, reveal.OppCard = outcome.BlueCard, outcome.RedCard
		}
		c.caster.Send(p.Identity, reveal)
	}

	if !outcome.Result.Terminal() {
		return
	}

	switch outcome.Result {
	case game.RedWin, game.BlueWin:
		winnerSide := game.SideRed
		if outcome.Result == game.BlueWin {
			winnerSide = game.SideBlue
		}
		winner, ok := rm.SideIdentity(winnerSide)
		if !ok {
			c.log.Error("Terminal result with a missing winner",
				zap.Int64("roomID", rm.ID()))
			return
		}
		loser, ok := rm.Opponent(winner)
		if !ok {
			c.log.Error("Terminal result with a missing loser",
				zap.Int64("roomID", rm.ID()))
			return
		}
		c.settleGame(ctx, rm, winner, loser.Identity)
	case game.Draw:
		// No stats or beans move on a draw.
	}

	c.caster.Broadcast(rm, protocol.GameResult{Result: outcome.Result.String()})
}

// settleGame updates stats and bean balances, records the outcome and
// prompts the winner to share a notable streak.
func (c *Coordinator) settleGame(ctx context.Context, rm *room.Room, winner, loser string) {
	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := c.store.UpdateStats(sctx, winner, true); err != nil {
		c.log.Error("Unable to update winner stats", zap.Error(err))
	}
	if err := c.store.UpdateStats(sctx, loser, false); err != nil {
		c.log.Error("Unable to update loser stats", zap.Error(err))
	}
	bet := rm.Bet()
	if err := c.store.UpdateBalance(sctx, winner, bet); err != nil {
		c.log.Error("Unable to credit winner", zap.Error(err))
	}
	if err := c.store.UpdateBalance(sctx, loser, -bet); err != nil {
		c.log.Error("Unable to debit loser", zap.Error(err))
	}
	c.log.Info("Settled game",
		zap.String("roomID", room.DisplayID(rm.ID())),
		zap.String("winner", winner),
		zap.Int64("bet", bet))

	rm.RecordResult(winner, loser)
	rec := GameRecord{RoomID: rm.ID(), Winner: winner, EndedAt: time.Now()}
	c.records.Append(winner, rec)
	c.records.Append(loser, rec)

	streak := c.records.WinStreak(winner, rm.ID())
	if streak < 3 {
		return
	}
	winnerSlot, _ := rm.Slot(winner)
	loserSlot, _ := rm.Slot(loser)
	c.caster.Send(winner, protocol.Share{
		ShareCode:  shareCode(streak),
		WinnerName: winnerSlot.Nickname,
		LoserName:  loserSlot.Nickname,
		Title:      shareTitle(streak),
	})
}

func shareCode(streak int) string {
	return "WIN" + strconv.Itoa(streak)
}

func shareTitle(streak int) string {
	if streak >= 5 {
		return "Untouchable!"
	}
	return "On a winning streak!"
}

// handleLeaveRoom processes an explicit leave. The leaver's own connection
// is closed; the opponent is only notified, never disconnected, so a
// transiently reconnecting opponent is not torn down by cascade.
func (c *Coordinator) handleLeaveRoom(identity string) {
	if _, inFlight := c.leaving.LoadOrStore(identity, struct{}{}); inFlight {
		c.log.Info("Duplicate leave ignored", zap.String("identity", identity))
		return
	}
	defer c.leaving.Delete(identity)

	rm, ok := c.directory.RoomByIdentity(identity)
	if ok {
		if opp, found := rm.Opponent(identity); found {
			c.caster.Send(opp.Identity, protocol.OpponentLeave{
				Message: opponentLeaveMessage,
			})
		}
	}

	if conn, found := c.registry.Lookup(identity); found {
		c.registry.Remove(identity, conn)
		conn.Close()
	}

	if ok {
		c.cleanupPlayer(identity, rm)
	}
	c.log.Info("Player left", zap.String("identity", identity))
}

func (c *Coordinator) handleRematchRequest(identity string) {
	rm, ok := c.directory.RoomByIdentity(identity)
	if !ok {
		return
	}
	opp, ok := rm.Opponent(identity)
	if !ok {
		c.opponentGone(identity)
		return
	}
	oppConn, ok := c.registry.Lookup(opp.Identity)
	if !ok {
		c.opponentGone(identity)
		return
	}
	c.caster.SendConn(oppConn, protocol.RematchRequested{From: identity})
}

func (c *Coordinator) handleRematchAccept(ctx context.Context, identity string) {
	rm, ok := c.directory.RoomByIdentity(identity)
	if !ok || rm.PlayerCount() != 2 {
		return
	}

	if !c.playersFunded(ctx, rm) {
		c.caster.Broadcast(rm, protocol.BeanNotEnough{Message: beanNotEnoughRematch})
		c.log.Warn("Rematch blocked, bean not enough",
			zap.Int64("roomID", rm.ID()))
		return
	}

	if opp, ok := rm.Opponent(identity); ok {
		c.caster.Send(opp.Identity, protocol.RematchAccepted{})
	}
	rm.ResetForRematch()
	c.caster.Broadcast(rm, protocol.GameReady{
		Players: playerInfos(rm),
		RoomID:  rm.ID(),
	})
	c.log.Info("Rematch started", zap.String("roomID", room.DisplayID(rm.ID())))
}

// handleRematchReject notifies the requester only. The rejecting player
// keeps its connection and seat to review the finished game; rejecting
// never tears the room down.
func (c *Coordinator) handleRematchReject(identity string) {
	rm, ok := c.directory.RoomByIdentity(identity)
	if !ok {
		return
	}
	requester, ok := rm.Opponent(identity)
	if !ok {
		return
	}
	if _, live := c.registry.Lookup(requester.Identity); !live {
		// The requester already disconnected; nothing to reject.
		return
	}
	c.caster.Send(requester.Identity, protocol.RematchRejected{})
}

// opponentGone handles a rematch aimed at a missing or dead opponent: the
// requester is told the opponent left and is cleaned up as if leaving.
func (c *Coordinator) opponentGone(identity string) {
	c.caster.Send(identity, protocol.OpponentLeave{Message: opponentLeaveMessage})
	c.handleLeaveRoom(identity)
}

// cleanupPlayer unseats the identity and tears the room down once no
// seated player holds a live connection.
func (c *Coordinator) cleanupPlayer(identity string, rm *room.Room) {
	rm.RemovePlayer(identity)
	c.directory.Detach(identity, rm.ID())

	for _, p := range rm.Players() {
		if _, live := c.registry.Lookup(p.Identity); live {
			return
		}
	}
	c.directory.Teardown(rm.ID())
}

// playersFunded checks that every seated player can cover the room's bet.
func (c *Coordinator) playersFunded(ctx context.Context, rm *room.Room) bool {
	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	for _, p := range rm.Players() {
		user, err := c.store.FindOrCreateUser(sctx, p.Identity)
		if err != nil {
			c.log.Error("Unable to check balance",
				zap.String("identity", p.Identity), zap.Error(err))
			return false
		}
		if user.Bean < rm.Bet() {
			return false
		}
	}
	return true
}

func playerInfos(rm *room.Room) []protocol.PlayerInfo {
	players := rm.Players()
	infos := make([]protocol.PlayerInfo, len(players))
	for i, p := range players {
		infos[i] = protocol.PlayerInfo{
			Identity: p.Identity,
			Nickname: p.Nickname,
			Side:     string(p.Side),
			UserCode: p.UserCode,
			WinRate:  p.WinRate,
		}
	}
	return infos
}
