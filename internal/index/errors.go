package index

import "errors"

var (
	ErrNotFavorite = errors.New("room is not a favorite")
	ErrUnknownRoom = errors.New("room is not known to the index")
)
