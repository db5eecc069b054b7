package rules

import "github.com/DoyleJ11/card-table-backend/internal/cards"

const (
	ReasonMustLead      = "You must play at least one card when leading"
	ReasonInvalidCombo  = "Those cards do not form a valid combination"
	ReasonCannotBeat    = "Your play does not beat the previous combination"
	ReasonNothingToPass = "There is nothing to pass on"
)

type Validation struct {
	OK     bool
	Combo  Combo
	Reason string
}

// TrickState is the running state of one trick.
type TrickState struct {
	LastCombo  *Combo
	LastSeatID string
	Passes     int
}

type TrickInput struct {
	Combo      Combo
	SeatID     string
	State      TrickState
	NextSeatOf func(seatID string) string
}

type TrickOutcome struct {
	OK         bool
	TrickEnded bool
	NextSeatID string
	State      TrickState
	Reason     string
}

// Beats reports whether candidate may be played on top of previous.
func Beats(candidate, previous Combo) bool {
	switch {
	case candidate.Type == Rocket:
		return previous.Type != Rocket
	case previous.Type == Rocket:
		return false
	case candidate.Type == Bomb && previous.Type != Bomb:
		return true
	case candidate.Type != previous.Type:
		return false
	case len(candidate.Cards) != len(previous.Cards):
		return false
	default:
		return candidate.Rank > previous.Rank
	}
}

func ValidateLead(cs []cards.Card) Validation {
	if len(cs) == 0 {
		return Validation{Reason: ReasonMustLead}
	}
	combo, ok := Classify(cs)
	if !ok {
		return Validation{Reason: ReasonInvalidCombo}
	}
	return Validation{OK: true, Combo: combo}
}

// ValidateFollow accepts an empty play as a pass.
func ValidateFollow(cs []cards.Card, previous Combo) Validation {
	if len(cs) == 0 {
		return Validation{OK: true, Combo: Combo{Type: Pass}}
	}
	combo, ok := Classify(cs)
	if !ok {
		return Validation{Reason: ReasonInvalidCombo}
	}
	if !Beats(combo, previous) {
		return Validation{Reason: ReasonCannotBeat}
	}
	return Validation{OK: true, Combo: combo}
}

// AdvanceTrick applies one accepted play to the trick. When a pass would hand the turn
// back to the owner of the last combo, the trick closes and that owner leads next.
func AdvanceTrick(in TrickInput) TrickOutcome {
	next := in.NextSeatOf(in.SeatID)

	if !in.Combo.IsPass() {
		combo := in.Combo
		return TrickOutcome{
			OK:         true,
			NextSeatID: next,
			State:      TrickState{LastCombo: &combo, LastSeatID: in.SeatID},
		}
	}

	if in.State.LastCombo == nil {
		return TrickOutcome{State: in.State, Reason: ReasonNothingToPass}
	}
	st := in.State
	st.Passes++
	if next == st.LastSeatID {
		return TrickOutcome{OK: true, TrickEnded: true, NextSeatID: st.LastSeatID, State: TrickState{}}
	}
	return TrickOutcome{OK: true, NextSeatID: next, State: st}
}

// Oracle adapts the package functions to an injectable value.
type Oracle struct{}

func (Oracle) Classify(cs []cards.Card) (Combo, bool) { return Classify(cs) }
func (Oracle) ValidateLead(cs []cards.Card) Validation { return ValidateLead(cs) }
func (Oracle) ValidateFollow(cs []cards.Card, prev Combo) Validation { return ValidateFollow(cs, prev) }
func (Oracle) AdvanceTrick(in TrickInput) TrickOutcome { return AdvanceTrick(in) }
func (Oracle) Beats(candidate, previous Combo) bool { return Beats(candidate, previous) }
