package rules

import "errors"

// Placement and turn errors. Callers wrap them with context and test with errors.Is.
var (
	ErrOutOfZone              = errors.New("position outside legal placement zone")
	ErrTileOccupied           = errors.New("tile occupied")
	ErrInsufficientResources  = errors.New("insufficient resources")
	ErrNotYourTurn            = errors.New("not your turn")
	ErrHandFull               = errors.New("hand full")
	ErrInvalidCard            = errors.New("card not in hand")
	ErrMatchEnded             = errors.New("match has ended")
	ErrUnknownReservation     = errors.New("unknown placement reservation")
	ErrInvalidPhaseTransition = errors.New("invalid phase transition")
)
