package game

import "errors"

var (
	ErrCatalogIncomplete = errors.New("ship catalog incomplete")
	ErrCatalogFull       = errors.New("ship catalog full")
	ErrInvalidShip       = errors.New("invalid ship")
	ErrInvalidVariant    = errors.New("invalid fitting variant")
	ErrUnknownCommander  = errors.New("unknown commander")
	ErrNoDefence         = errors.New("no defence registered")
	ErrNotOwner          = errors.New("caller is not the owner")
	ErrSelfAttack        = errors.New("cannot attack own defence")
	ErrFightNotFound     = errors.New("fight not found")
)
