package circuit

import "errors"

// Rejections raised before any mutation takes place. Callers match them with
// errors.Is; the returned errors wrap them with context.
var (
	ErrPlacementConflict  = errors.New("circuit: placement conflict")
	ErrOutOfBounds        = errors.New("circuit: outside placement grid")
	ErrInvalidConnection  = errors.New("circuit: invalid connection")
	ErrNameConflict       = errors.New("circuit: name already in use")
	ErrInvalidOrientation = errors.New("circuit: invalid orientation")
	ErrNotFound           = errors.New("circuit: not found")
)
