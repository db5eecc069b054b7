package types

// Client -> Server (payload fields in internal/types.ClientMessage)
//   table:create    { variant, capacity }
//   table:join      { tableId }
//   table:leave     {}
//   table:ready     { ready }
//   table:start     {}
//   table:capacity  { capacity }
//   table:kick      { seatId }
//   table:add-bot   {}
//   game:bid        { bid: 0..3 }
//   game:double     { double }
//   game:play       { cardIds: number[] }   empty cardIds is a pass
//
// Every client message is answered with an ack { requestId, ok, message?, payload? }.

// Server -> Client
const (
	EventAck         = "ack"
	EventTableState  = "table:state"
	EventGameState   = "game:snapshot"
	EventGameEnded   = "game:ended"
	EventCardDealt   = "card:dealt"
	EventKicked      = "table:kicked"
	EventTableClosed = "table:closed"
)

// Room status values in RoomSummary.Status.
const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in-progress"
	StatusFull       = "full"
)
