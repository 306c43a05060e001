package protocol

import "encoding/json"

// Outbound is a message sent to a client. Each type carries its wire tag so
// senders never emit an untagged payload.
type Outbound interface {
	MessageType() string
}

// PlayerInfo is the public view of a player slot shared with both clients.
type PlayerInfo struct {
	Identity string `json:"identity"`
	Nickname string `json:"nickname"`
	Side     string `json:"side"`
	UserCode int64  `json:"userCode"`
	WinRate  int    `json:"winRate"`
}

// RoomState is broadcast while a room is waiting for its second player.
type RoomState struct {
	Players []PlayerInfo `json:"players"`
}

// GameReady is broadcast once both players are seated and funded.
type GameReady struct {
	Players []PlayerInfo `json:"players"`
	RoomID  int64        `json:"roomId"`
}

// RoundComplete reveals both cards of a finished round, side-relative to
// the receiving player.
type RoundComplete struct {
	Round   int `json:"round"`
	MyCard  int `json:"myCard"`
	OppCard int `json:"oppCard"`
}

type GameResult struct {
	Result string `json:"result"`
}

// PleaseTakeCard nudges the player whose card is still outstanding.
type PleaseTakeCard struct{}

type OpponentLeave struct {
	Message string `json:"message"`
}

type RematchRequested struct {
	From string `json:"from"`
}

type RematchAccepted struct{}

type RematchRejected struct{}

// Share prompts a streaking winner to share the result.
type Share struct {
	ShareCode  string `json:"shareCode"`
	WinnerName string `json:"winnerName"`
	LoserName  string `json:"loserName"`
	Title      string `json:"title"`
}

type BeanNotEnough struct {
	Message string `json:"message"`
}

type RoomFull struct{}

type NicknameError struct {
	Message string `json:"message"`
}

func (RoomState) MessageType() string        { return "room_state" }
func (GameReady) MessageType() string        { return "game_ready" }
func (RoundComplete) MessageType() string    { return "round_complete" }
func (GameResult) MessageType() string       { return "game_result" }
func (PleaseTakeCard) MessageType() string   { return "please_take_card" }
func (OpponentLeave) MessageType() string    { return "opponent_leave" }
func (RematchRequested) MessageType() string { return "rematch_request" }
func (RematchAccepted) MessageType() string  { return "rematch_accept" }
func (RematchRejected) MessageType() string  { return "rematch_reject" }
func (Share) MessageType() string            { return "share" }
func (BeanNotEnough) MessageType() string    { return "bean_not_enough" }
func (RoomFull) MessageType() string         { return "room_full" }
func (NicknameError) MessageType() string    { return "nickname_error" }

// Wire flattens an outbound message into the tagged JSON object clients
// expect: the message's own fields at the top level plus a "type" tag.
func Wire(m Outbound) (map[string]interface{}, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]interface{})
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	fields["type"] = m.MessageType()
	return fields, nil
}
