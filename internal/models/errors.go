package models

import "errors"

// Custom errors
var (
	ErrInvalidProbability = errors.New("model probability must be between 0 and 1")
	ErrDuplicateTeam      = errors.New("ticket contains the same team twice")
	ErrDuplicateGame      = errors.New("ticket contains two legs from the same game")
	ErrTicketSizeMismatch = errors.New("ticket size does not match number of legs")
)
