package game

import "errors"

// Domain rule violations. These surface as ActionResult{Success: false}
// with Reason set; they never become HTTP errors.
var (
	ErrUnknownFaction     = errors.New("unknown faction")
	ErrAlreadyInFaction   = errors.New("player already belongs to a faction")
	ErrNoFaction          = errors.New("player has not joined a faction")
	ErrInsufficientEnergy = errors.New("insufficient energy")
	ErrNotFound           = errors.New("player not found")
)
