package table

// ActionError is a rejected player action. Message is shown to the acting connection;
// the table is left unmodified.
type ActionError struct {
	Code    string
	Message string
}

func (e *ActionError) Error() string { return e.Message }

// Reject builds a one-off rejection, e.g. from a rules-oracle reason.
func Reject(code, message string) *ActionError {
	return &ActionError{Code: code, Message: message}
}

const CodeIllegalPlay = "ILLEGAL_PLAY"

var (
	ErrTableNotFound       = &ActionError{Code: "TABLE_NOT_FOUND", Message: "Table not found"}
	ErrTableFull           = &ActionError{Code: "TABLE_FULL", Message: "Table is full"}
	ErrGameInProgress      = &ActionError{Code: "GAME_IN_PROGRESS", Message: "A game is already in progress at this table"}
	ErrGameNotStarted      = &ActionError{Code: "GAME_NOT_STARTED", Message: "The game has not started"}
	ErrNotAtTable          = &ActionError{Code: "NOT_AT_TABLE", Message: "You are not seated at a table"}
	ErrAlreadySeated       = &ActionError{Code: "ALREADY_SEATED", Message: "You are already seated at another table"}
	ErrNotHost             = &ActionError{Code: "NOT_HOST", Message: "Only the host can perform this action"}
	ErrNotFull             = &ActionError{Code: "NOT_ENOUGH_PLAYERS", Message: "The table needs every seat filled to start"}
	ErrNotAllReady         = &ActionError{Code: "NOT_ALL_READY", Message: "Every player must be ready to start"}
	ErrCapacityLocked      = &ActionError{Code: "CAPACITY_LOCKED", Message: "This variant has a fixed table size"}
	ErrCapacityBelowSeated = &ActionError{Code: "CAPACITY_TOO_SMALL", Message: "Capacity cannot be below the number of seated players"}
	ErrCannotKickSelf      = &ActionError{Code: "CANNOT_KICK_SELF", Message: "You cannot kick yourself"}
	ErrPlayerNotFound      = &ActionError{Code: "PLAYER_NOT_FOUND", Message: "That player is not at this table"}
	ErrUnknownVariant      = &ActionError{Code: "UNKNOWN_VARIANT", Message: "Unknown game variant"}
	ErrUnsupportedAction   = &ActionError{Code: "UNSUPPORTED_ACTION", Message: "This action is not available in this variant"}
	ErrWrongPhase          = &ActionError{Code: "WRONG_PHASE", Message: "That action is not allowed right now"}
	ErrNotYourTurn         = &ActionError{Code: "NOT_YOUR_TURN", Message: "It is not your turn"}
	ErrInvalidBid          = &ActionError{Code: "INVALID_BID", Message: "Bid must be a pass or higher than the current bid, up to 3"}
	ErrUnknownCards        = &ActionError{Code: "UNKNOWN_CARDS", Message: "Unknown cards"}
	ErrCardsNotInHand      = &ActionError{Code: "CARDS_NOT_IN_HAND", Message: "Those cards are not in your hand"}
	ErrInternal            = &ActionError{Code: "INTERNAL", Message: "Something went wrong, please try again"}
)
