package match

import (
	"github.com/tencard/match-backend/pkg/comms"
	"github.com/tencard/match-backend/pkg/protocol"
	"github.com/tencard/match-backend/pkg/room"
	"go.uber.org/zap"
)

// Broadcaster fans outbound messages out to the live connections of a
// room's members. Delivery is best effort: a failed or missing recipient
// is logged and skipped, never retried, and never aborts the fan-out.
type Broadcaster struct {
	log      *zap.Logger
	registry *comms.Registry
}

func NewBroadcaster(log *zap.Logger, registry *comms.Registry) *Broadcaster {
	return &Broadcaster{log: log, registry: registry}
}

// Send delivers a message to one identity's current connection, if any.
func (b *Broadcaster) Send(identity string, msg protocol.Outbound) {
	conn, ok := b.registry.Lookup(identity)
	if !ok {
		b.log.Warn("Skipping message to identity without a live connection",
			zap.String("identity", identity),
			zap.String("messageType", msg.MessageType()))
		return
	}
	b.SendConn(conn, msg)
}

// SendConn delivers a message to a specific connection.
func (b *Broadcaster) SendConn(conn comms.Conn, msg protocol.Outbound) {
	fields, err := protocol.Wire(msg)
	if err != nil {
		b.log.Error("Unable to encode outbound message",
			zap.String("messageType", msg.MessageType()),
			zap.Error(err))
		return
	}
	if err := conn.WriteJSON(fields); err != nil {
		b.log.Warn("Failed to send message",
			zap.String("messageType", msg.MessageType()),
			zap.Error(err))
	}
}

// Broadcast sends a message to every seated player in a room.
func (b *Broadcaster) Broadcast(rm *room.Room, msg protocol.Outbound) {
	for _, p := range rm.Players() {
		b.Send(p.Identity, msg)
	}
}
