package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"rentacar/internal/domain/shared/apperr"
)

// translate maps driver failures onto application error kinds. A write
// conflict inside a transaction means another writer won the race.
func translate(op string, err error, conflict *apperr.ConflictError) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) || isWriteConflict(err) {
		if conflict != nil {
			return conflict
		}
		return &apperr.ConflictError{Resource: op}
	}
	return apperr.Transport("mongo "+op, err)
}

func isWriteConflict(err error) bool {
	var serverErr mongo.ServerError
	if !errors.As(err, &serverErr) {
		return false
	}
	return serverErr.HasErrorCode(112) || serverErr.HasErrorLabel("TransientTransactionError")
}
