package memory

import (
	"context"

	"fiefdom/internal/app/ports"
	"fiefdom/internal/domain/player"
)

type PlayerStateRepo struct {
	store *Store
}

func NewPlayerStateRepo(store *Store) PlayerStateRepo {
	return PlayerStateRepo{store: store}
}

func (r PlayerStateRepo) GetByPlayerID(ctx context.Context, playerID string) (player.State, error) {
	var (
		state player.State
		ok    bool
	)
	r.store.read(ctx, func() {
		state, ok = r.store.state[playerID]
	})
	if !ok {
		return player.State{}, ports.ErrNotFound
	}
	return state.Clone(), nil
}

func (r PlayerStateRepo) SaveWithVersion(ctx context.Context, state player.State, expectedVersion int64) error {
	var err error
	r.store.write(ctx, func() {
		current, ok := r.store.state[state.PlayerID]
		if !ok {
			if expectedVersion != 0 {
				err = ports.ErrConflict
				return
			}
			r.store.state[state.PlayerID] = state.Clone()
			return
		}
		if current.Version != expectedVersion {
			err = ports.ErrConflict
			return
		}
		r.store.state[state.PlayerID] = state.Clone()
	})
	return err
}
