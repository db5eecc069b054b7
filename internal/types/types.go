package types

import "encoding/json"

// Client command types.
const (
	CmdCreate   = "table:create"
	CmdJoin     = "table:join"
	CmdLeave    = "table:leave"
	CmdReady    = "table:ready"
	CmdStart    = "table:start"
	CmdCapacity = "table:capacity"
	CmdKick     = "table:kick"
	CmdAddBot   = "table:add-bot"
	CmdBid      = "game:bid"
	CmdDouble   = "game:double"
	CmdPlay     = "game:play"
)

// ClientMessage is one websocket frame from a client. Only the fields the command
// needs are read.
type ClientMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`

	Variant  string `json:"variant,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
	TableID  string `json:"tableId,omitempty"`
	Ready    bool   `json:"ready,omitempty"`
	SeatID   string `json:"seatId,omitempty"`
	Bid      int    `json:"bid,omitempty"`
	Double   bool   `json:"double,omitempty"`
	CardIDs  []int  `json:"cardIds,omitempty"`
}

// ServerMessage wraps every frame sent to a client.
type ServerMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Ack answers one ClientMessage, addressed only to the sender. Type is always "ack".
type Ack struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	OK        bool   `json:"ok"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}
