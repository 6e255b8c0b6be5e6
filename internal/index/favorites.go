package index

import (
	"slices"

	"github.com/MKhiriev/go-multimatrix/models"
)

// ToggleFavorite adds ref to the end of the manual order, or removes it.
// It returns the new favorite state.
func (x *Index) ToggleFavorite(ref models.RoomRef) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if idx := slices.Index(x.favorites, ref); idx >= 0 {
		x.favorites = slices.Delete(x.favorites, idx, idx+1)
		return false, nil
	}
	if _, known := x.keys[ref]; !known {
		return false, ErrUnknownRoom
	}

	x.favorites = append(x.favorites, ref)
	return true, nil
}

// ReorderFavorite swaps ref with its nearest neighbour in direction dir
// among favorites that currently resolve. Moving past either end is a no-op.
func (x *Index) ReorderFavorite(ref models.RoomRef, dir models.Direction) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	idx := slices.Index(x.favorites, ref)
	if idx < 0 {
		return ErrNotFavorite
	}

	step := 1
	if dir == models.Up {
		step = -1
	}
	for j := idx + step; j >= 0 && j < len(x.favorites); j += step {
		if _, known := x.keys[x.favorites[j]]; known {
			x.favorites[idx], x.favorites[j] = x.favorites[j], x.favorites[idx]
			return nil
		}
	}
	return nil
}

// IsFavorite reports whether ref is in the manual order.
func (x *Index) IsFavorite(ref models.RoomRef) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return slices.Contains(x.favorites, ref)
}

// Preferences returns the persisted part of the index.
func (x *Index) Preferences() models.Preferences {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return models.Preferences{
		Favorites: slices.Clone(x.favorites),
		SortMode:  x.mode,
	}
}

// LoadPreferences restores favorites and sort mode. Favorites of rooms not
// synced yet are kept and show up once their room is known.
func (x *Index) LoadPreferences(p models.Preferences) {
	x.SetSortMode(p.SortMode)

	x.mu.Lock()
	defer x.mu.Unlock()

	x.favorites = slices.Clone(p.Favorites)
}

// DropAccountFavorites forgets the favorites of a removed account.
func (x *Index) DropAccountFavorites(accountID string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.favorites = slices.DeleteFunc(x.favorites, func(ref models.RoomRef) bool {
		return ref.AccountID == accountID
	})
}
