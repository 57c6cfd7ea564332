package ports

import "context"

type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PlayerLocker serializes mutating operations per player within one process.
type PlayerLocker interface {
	Lock(ctx context.Context, playerID string) (unlock func(), err error)
}
