package protocol

import (
	"reflect"
	"testing"
)

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Inbound
		wantErr  bool
	}{
		{
			name: "join_room",
			raw:  `{"type":"join_room","identity":"dev-1","roomCode":"4396","nickname":"Sam"}`,
			expected: JoinRoom{
				Identity: "dev-1",
				RoomCode: "4396",
				Nickname: "Sam",
			},
		},
		{
			name:     "play_card",
			raw:      `{"type":"play_card","identity":"dev-1","card":7}`,
			expected: PlayCard{Identity: "dev-1", Card: 7},
		},
		{
			name:     "leave_room",
			raw:      `{"type":"leave_room"}`,
			expected: LeaveRoom{},
		},
		{
			name:     "rematch_request",
			raw:      `{"type":"rematch_request"}`,
			expected: RematchRequest{},
		},
		{
			name:     "rematch_accept",
			raw:      `{"type":"rematch_accept"}`,
			expected: RematchAccept{},
		},
		{
			name:     "rematch_reject",
			raw:      `{"type":"rematch_reject"}`,
			expected: RematchReject{},
		},
		{
			name:    "unknown type",
			raw:     `{"type":"self_destruct"}`,
			wantErr: true,
		},
		{
			name:    "missing type tag",
			raw:     `{"identity":"dev-1"}`,
			wantErr: true,
		},
		{
			name:    "join_room missing roomCode",
			raw:     `{"type":"join_room","identity":"dev-1"}`,
			wantErr: true,
		},
		{
			name:    "play_card missing card",
			raw:     `{"type":"play_card","identity":"dev-1"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     `{"type":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseInbound([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %#v", msg)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(msg, tt.expected) {
				t.Errorf("got %#v, want %#v", msg, tt.expected)
			}
		})
	}
}

func TestWireTagsEveryMessage(t *testing.T) {
	messages := []Outbound{
		RoomState{},
		GameReady{},
		RoundComplete{Round: 3, MyCard: 5, OppCard: 8},
		GameResult{Result: "red_win"},
		PleaseTakeCard{},
		OpponentLeave{Message: "gone"},
		RematchRequested{From: "dev-1"},
		RematchAccepted{},
		RematchRejected{},
		Share{ShareCode: "WIN3"},
		BeanNotEnough{},
		RoomFull{},
		NicknameError{},
	}

	seen := make(map[string]bool)
	for _, m := range messages {
		fields, err := Wire(m)
		if err != nil {
			t.Fatalf("Wire(%T): %v", m, err)
		}
		tag, ok := fields["type"].(string)
		if !ok || tag == "" {
			t.Errorf("Wire(%T) produced no type tag", m)
		}
		if seen[tag] {
			t.Errorf("duplicate wire tag %q", tag)
		}
		seen[tag] = true
	}

	fields, err := Wire(RoundComplete{Round: 3, MyCard: 5, OppCard: 8})
	if err != nil {
		t.Fatal(err)
	}
	if fields["myCard"] != float64(5) || fields["oppCard"] != float64(8) {
		t.Errorf("round_complete fields not flattened: %v", fields)
	}
}
