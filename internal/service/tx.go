package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/validation"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// withTx runs fn between BEGIN and COMMIT. Any error or panic from fn rolls the transaction back.
func withTx(ctx context.Context, db txProvider, fn func(tx *sqlx.Tx) error) (err error) {
	if db == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
	}
	return nil
}

// validateRequest runs the struct validator and converts failures into a VALIDATION_ERROR carrying
// the first translated field message.
func validateRequest(v *validator.Validate, req interface{}) error {
	if err := v.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validation.Message(err))
	}
	return nil
}

func invalid(message string) error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}

func internalErr(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// writeErr maps a failed INSERT/UPDATE: unique violations become the same conflict the
// pre-check reports, a missing row or malformed id becomes not found, values the schema
// refused become a validation error, anything else is internal.
func writeErr(err error, conflict, notFound, action string) error {
	switch {
	case appErrors.IsUniqueViolation(err) && conflict != "":
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflict)
	case missingRow(err) && notFound != "":
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, notFound)
	case appErrors.IsRejectedValue(err):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "one of the values is too long or out of range")
	default:
		return internalErr(err, fmt.Sprintf("failed to %s", action))
	}
}

func notFoundOr(err error, notFound, action string) error {
	if missingRow(err) {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, notFound)
	}
	return internalErr(err, fmt.Sprintf("failed to %s", action))
}

func missingRow(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || appErrors.IsMalformedID(err)
}

// roundCents matches the NUMERIC(14,2) money columns so validation sees the stored value.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
