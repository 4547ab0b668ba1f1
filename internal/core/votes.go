package core

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/hjiwane/apartment-society-backend/internal/apperr"
	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/policy"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

// Ledger: голоса по заявкам. Одна строка на (заявка, пользователь);
// счётчик не хранится, а считается при чтении.
type Ledger struct {
	deps Deps
	dir  Directory
}

func (l *Ledger) eligible(ctx context.Context, tx store.Tx, callerID, requestID uint) error {
	r, err := tx.RequestByID(ctx, requestID)
	if err != nil {
		return lookupErr(err, "Maintenance request does not exist")
	}
	t, err := targetOf(ctx, tx, r)
	if err != nil {
		return apperr.Internal(err)
	}
	f, err := l.dir.Facts(ctx, tx, callerID, r.BuildingID)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := policy.CanVote(f, t); err != nil {
		return deny(err)
	}
	return nil
}

func (l *Ledger) Add(ctx context.Context, callerID, requestID uint) error {
	const dup = "User has already voted on this maintenance request"
	err := l.deps.run(ctx, func(tx store.Tx) error {
		if err := l.eligible(ctx, tx, callerID, requestID); err != nil {
			return err
		}
		exists, err := tx.VoteExists(ctx, requestID, callerID)
		if err != nil {
			return apperr.Internal(err)
		}
		if exists {
			return apperr.Conflict(dup)
		}
		if err := tx.CreateVote(ctx, &models.Vote{RequestID: requestID, UserID: callerID}); err != nil {
			return writeErr(err, dup)
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.deps.Log.WithFields(logrus.Fields{"request_id": requestID, "user_id": callerID}).Info("vote added")
	return nil
}

// Remove: повторное снятие голоса даёт 404, это не no-op.
func (l *Ledger) Remove(ctx context.Context, callerID, requestID uint) error {
	err := l.deps.run(ctx, func(tx store.Tx) error {
		if err := l.eligible(ctx, tx, callerID, requestID); err != nil {
			return err
		}
		if err := tx.DeleteVote(ctx, requestID, callerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("Vote does not exist")
			}
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.deps.Log.WithFields(logrus.Fields{"request_id": requestID, "user_id": callerID}).Info("vote removed")
	return nil
}

// Cast: dir=1 добавляет голос, dir=0 снимает. Возвращает true, если добавлен.
func (l *Ledger) Cast(ctx context.Context, callerID, requestID uint, dir int) (bool, error) {
	switch dir {
	case 1:
		return true, l.Add(ctx, callerID, requestID)
	case 0:
		return false, l.Remove(ctx, callerID, requestID)
	default:
		return false, apperr.Validation("dir must be 0 or 1")
	}
}
