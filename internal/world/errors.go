package world

import "errors"

var (
	ErrAvatarExists     = errors.New("avatar already exists")
	ErrAvatarNotFound   = errors.New("avatar not found")
	ErrNoSpawnLocation  = errors.New("no free spawn location")
	ErrLocationBlocked  = errors.New("location is not habitable")
	ErrLocationOccupied = errors.New("location is occupied")
	ErrInvalidAction    = errors.New("invalid action")
)
