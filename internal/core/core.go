// Package core implements the authorization and request-lifecycle model:
// buildings and units, role-scoped memberships, maintenance requests and
// votes. Every exported operation runs in exactly one store transaction and
// returns *apperr.Error values for every expected failure.
package core

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hjiwane/apartment-society-backend/internal/apperr"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

// Deps: общие зависимости сервисов.
type Deps struct {
	Store store.Store
	Log   logrus.FieldLogger
	Now   func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// Services: все сервисы ядра, собранные над одним хранилищем.
type Services struct {
	Accounts    *Accounts
	Registry    *Registry
	Memberships *Memberships
	Requests    *Lifecycle
	Votes       *Ledger
}

func New(d Deps, hasher CredentialHasher, tokens TokenIssuer) *Services {
	if d.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		d.Log = l
	}
	return &Services{
		Accounts:    &Accounts{deps: d, hasher: hasher, tokens: tokens},
		Registry:    &Registry{deps: d},
		Memberships: &Memberships{deps: d},
		Requests:    &Lifecycle{deps: d},
		Votes:       &Ledger{deps: d},
	}
}

// run выполняет fn в транзакции; всё, что не *apperr.Error, становится Internal.
func (d Deps) run(ctx context.Context, fn func(tx store.Tx) error) error {
	err := d.Store.Tx(ctx, fn)
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(err)
}

// lookupErr переводит ошибку поиска, отсутствие становится NotFound с сообщением msg.
func lookupErr(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return &apperr.Error{Kind: apperr.KindNotFound, Message: msg, Err: err}
	}
	return apperr.Internal(err)
}

// writeErr переводит ошибку записи, нарушение уникальности становится Conflict.
func writeErr(err error, conflictMsg string) error {
	if errors.Is(err, store.ErrConflict) {
		return &apperr.Error{Kind: apperr.KindConflict, Message: conflictMsg, Err: err}
	}
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("referenced record does not exist")
	}
	return apperr.Internal(err)
}

// deny оборачивает отказ политики в Forbidden.
func deny(err error) error {
	return &apperr.Error{Kind: apperr.KindForbidden, Message: err.Error(), Err: err}
}
