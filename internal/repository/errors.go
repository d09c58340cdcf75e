package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors shared by every store implementation. Services translate
// them into domain errors; anything else is an infrastructure failure.
var (
	ErrNotFound      = errors.New("record not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrOwnerNotFound = errors.New("owner not found")
)

// Postgres SQLSTATE codes the stores care about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// lookupError normalizes errors from single-row lookups. A malformed id can
// never match a row, so it reports ErrNotFound as well.
func lookupError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == pgInvalidText {
		return ErrNotFound
	}
	return err
}
