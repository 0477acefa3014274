package services

import (
	"context"

	"github.com/iota-uz/docflow/pkg/composables"
)

// inTx runs fn inside a transaction. When the context already carries one
// the existing transaction is reused, which lets callers compose several
// service calls into a single atomic unit.
func inTx[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = fn(txCtx)
		return err
	})
	return out, err
}
