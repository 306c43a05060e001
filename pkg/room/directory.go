package room

import (
	"sync"

	"go.uber.org/zap"
)

// Directory owns room lifecycle and the code->room and identity->room
// lookups. The three mappings stay mutually consistent: an identity maps
// to a room only while seated in it.
//
// We're using sync.Maps which are optimised for few writes but lots of reads.
type Directory struct {
	log *zap.Logger

	rooms      sync.Map // roomID int64 -> *Room
	codeToRoom sync.Map // code string -> roomID int64
	idToRoom   sync.Map // identity string -> roomID int64

	roomIDs   *IDGenerator
	userCodes *IDGenerator

	bet int64
}

// NewDirectory builds a directory that stakes every room at bet.
func NewDirectory(log *zap.Logger, roomIDs *IDGenerator, bet int64) *Directory {
	return &Directory{
		log:       log,
		roomIDs:   roomIDs,
		userCodes: NewIDGenerator(10000),
		bet:       bet,
	}
}

// JoinOrCreate seats identity in the room registered under code, creating
// the room if the code is unknown. It returns the room, the player's slot
// and whether this was a reconnect into an existing seat. A full room
// rejects the join with ErrRoomFull and no state change.
func (d *Directory) JoinOrCreate(code, identity, nickname string, winRate int) (*Room, PlayerSlot, bool, error) {
	for {
		if v, ok := d.codeToRoom.Load(code); ok {
			roomID := v.(int64)
			rv, ok := d.rooms.Load(roomID)
			if !ok {
				// Stale code left over from a torn-down room.
				d.codeToRoom.CompareAndDelete(code, roomID)
				continue
			}
			rm := rv.(*Room)
			slot, reconnect, err := rm.Join(identity, nickname, d.userCodes.Next(), winRate)
			if err != nil {
				return nil, PlayerSlot{}, false, err
			}
			d.idToRoom.Store(identity, roomID)
			if _, live := d.rooms.Load(roomID); !live {
				// The room was torn down while we were taking the seat.
				// Undo and retry; any later teardown sees our seat and
				// mapping and cleans them itself.
				rm.RemovePlayer(identity)
				d.idToRoom.CompareAndDelete(identity, roomID)
				continue
			}
			return rm, slot, reconnect, nil
		}

		roomID := d.roomIDs.Next()
		rm := newRoom(roomID, code, d.bet)
		d.rooms.Store(roomID, rm)
		if _, raced := d.codeToRoom.LoadOrStore(code, roomID); raced {
			// A concurrent join registered this code first; discard ours
			// and take a seat in the winner's room.
			d.rooms.Delete(roomID)
			continue
		}
		slot, _, err := rm.Join(identity, nickname, d.userCodes.Next(), winRate)
		if err != nil {
			return nil, PlayerSlot{}, false, err
		}
		d.idToRoom.Store(identity, roomID)
		d.log.Info("Created room",
			zap.String("code", code),
			zap.String("roomID", DisplayID(roomID)))
		return rm, slot, false, nil
	}
}

// Room returns the room with the given id.
func (d *Directory) Room(id int64) (*Room, bool) {
	v, ok := d.rooms.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Room), true
}

// RoomByIdentity returns the room an identity is seated in.
func (d *Directory) RoomByIdentity(identity string) (*Room, bool) {
	v, ok := d.idToRoom.Load(identity)
	if !ok {
		return nil, false
	}
	return d.Room(v.(int64))
}

// Detach drops the identity->room mapping, but only if it still points at
// roomID.
func (d *Directory) Detach(identity string, roomID int64) {
	d.idToRoom.CompareAndDelete(identity, roomID)
}

// Teardown removes a room and its code mapping. Callers invoke it only
// once no seated player holds a live connection.
func (d *Directory) Teardown(roomID int64) {
	v, ok := d.rooms.LoadAndDelete(roomID)
	if !ok {
		return
	}
	rm := v.(*Room)
	d.codeToRoom.CompareAndDelete(rm.Code(), roomID)
	for _, p := range rm.Players() {
		d.idToRoom.CompareAndDelete(p.Identity, roomID)
	}
	d.log.Info("Tore down room",
		zap.String("code", rm.Code()),
		zap.Int64("roomID", roomID))
}
