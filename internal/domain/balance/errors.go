package balance

import "errors"

// ErrNoPlayers is returned when asked to present an empty result.
var ErrNoPlayers = errors.New("no players to balance")
