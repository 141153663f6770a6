// Package services contains server-side business logic. Services compose
// repositories from a RepositoryManager, run multi-step writes inside
// dbx.WithTx and return typed common.AppError values for every failure a
// client can act on.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/logging"
)

// internalError hides untyped failures behind INTERNAL_ERROR after logging
// them. Typed errors pass through unchanged.
func internalError(ctx context.Context, log logging.Logger, op string, err error) error {
	if _, ok := common.AsAppError(err); ok {
		return err
	}
	log.Error(ctx, op+" failed", "error", err)
	return common.Wrap(err, common.KindInternal, common.ErrInternal.Code)
}

// notFoundAs maps a repository miss to the given typed error.
func notFoundAs(err error, typed error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return typed
	}
	return err
}
