package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Inbound is a message received from a client. The set of implementations
// is closed: ParseInbound only ever produces the types below, so dispatch
// can match them exhaustively.
type Inbound interface {
	inbound()
}

type JoinRoom struct {
	Identity string `mapstructure:"identity"`
	RoomCode string `mapstructure:"roomCode"`
	Nickname string `mapstructure:"nickname"`
}

type PlayCard struct {
	Identity string `mapstructure:"identity"`
	Card     int    `mapstructure:"card"`
}

type LeaveRoom struct{}

type RematchRequest struct{}

type RematchAccept struct{}

type RematchReject struct{}

func (JoinRoom) inbound()       {}
func (PlayCard) inbound()       {}
func (LeaveRoom) inbound()      {}
func (RematchRequest) inbound() {}
func (RematchAccept) inbound()  {}
func (RematchReject) inbound()  {}

// ParseInbound decodes a raw client message. The wire format is a flat JSON
// object tagged by a "type" field.
func ParseInbound(data []byte) (Inbound, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}

	msgType, ok := fields["type"].(string)
	if !ok {
		return nil, fmt.Errorf("message has no type tag")
	}

	switch msgType {
	case "join_room":
		var m JoinRoom
		if err := decode(fields, &m); err != nil {
			return nil, err
		}
		if m.Identity == "" || m.RoomCode == "" {
			return nil, fmt.Errorf("join_room missing identity or roomCode")
		}
		return m, nil

	case "play_card":
		var m PlayCard
		if err := decode(fields, &m); err != nil {
			return nil, err
		}
		if m.Identity == "" || m.Card == 0 {
			return nil, fmt.Errorf("play_card missing identity or card")
		}
		return m, nil

	case "leave_room":
		return LeaveRoom{}, nil
	case "rematch_request":
		return RematchRequest{}, nil
	case "rematch_accept":
		return RematchAccept{}, nil
	case "rematch_reject":
		return RematchReject{}, nil

	default:
		return nil, fmt.Errorf("unknown message type %q", msgType)
	}
}

func decode(fields map[string]interface{}, out interface{}) error {
	if err := mapstructure.Decode(fields, out); err != nil {
		return fmt.Errorf("unable to decode %s message: %w", fields["type"], err)
	}
	return nil
}
