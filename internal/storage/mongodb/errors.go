package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/magabrotheeeer/techblog/internal/lib/slug"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

// wrapErr переводит ошибку драйвера в таксономию storage.
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	case mongo.IsDuplicateKeyError(err), errors.Is(err, slug.ErrExhausted):
		return fmt.Errorf("%s: %w: %w", op, storage.ErrConflict, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return storage.Unavailable(op, err)
	}
}
