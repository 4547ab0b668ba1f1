package core

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hjiwane/apartment-society-backend/internal/apperr"
	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/policy"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

// Lifecycle: заявки на обслуживание и их статус.
// Порядок переходов не ограничен, ограничено только право на переход.
type Lifecycle struct {
	deps Deps
	dir  Directory
}

// NewRequest: входные данные заявки. BuildingID можно опустить,
// если задан UnitID: здание берётся из юнита.
type NewRequest struct {
	BuildingID  *uint
	UnitID      *uint
	Title       string
	Description *string
}

// RequestWithVotes: заявка с числом голосов, посчитанным при чтении.
type RequestWithVotes struct {
	Maintenance models.MaintenanceRequest `json:"maintenance"`
	Votes       int64                     `json:"votes"`
}

// targetOf строит цель заявки; для заявки по юниту подгружает юнит.
func targetOf(ctx context.Context, tx store.Tx, r *models.MaintenanceRequest) (policy.RequestTarget, error) {
	t := policy.RequestTarget{BuildingID: r.BuildingID, UnitID: r.UnitID}
	if r.UnitID == nil {
		return t, nil
	}
	u, err := tx.UnitByID(ctx, *r.UnitID)
	if err != nil {
		return t, err
	}
	t.UnitIsCommon = u.IsCommon()
	return t, nil
}

// load достаёт заявку, её цель и факты о вызывающем в здании заявки.
func (l *Lifecycle) load(ctx context.Context, tx store.Tx, callerID, id uint) (*models.MaintenanceRequest, policy.RequestTarget, policy.Facts, error) {
	r, err := tx.RequestByID(ctx, id)
	if err != nil {
		return nil, policy.RequestTarget{}, policy.Facts{}, lookupErr(err, "Maintenance request does not exist")
	}
	t, err := targetOf(ctx, tx, r)
	if err != nil {
		return nil, t, policy.Facts{}, apperr.Internal(err)
	}
	f, err := l.dir.Facts(ctx, tx, callerID, r.BuildingID)
	if err != nil {
		return nil, t, f, apperr.Internal(err)
	}
	return r, t, f, nil
}

func (l *Lifecycle) Create(ctx context.Context, callerID uint, in NewRequest) (*models.MaintenanceRequest, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.BuildingID == nil && in.UnitID == nil {
		return nil, apperr.Validation("building_id or unit_id is required")
	}
	creator := callerID
	r := &models.MaintenanceRequest{
		UnitID:          in.UnitID,
		CreatedByUserID: &creator,
		Title:           title,
		Description:     in.Description,
		Status:          models.StatusOpen,
	}
	err := l.deps.run(ctx, func(tx store.Tx) error {
		t := policy.RequestTarget{UnitID: in.UnitID}
		if in.UnitID != nil {
			u, err := tx.UnitByID(ctx, *in.UnitID)
			if err != nil {
				return lookupErr(err, "Unit does not exist")
			}
			if in.BuildingID != nil && *in.BuildingID != u.BuildingID {
				return apperr.Validation("unit %d does not belong to building %d", u.ID, *in.BuildingID)
			}
			t.BuildingID, t.UnitIsCommon = u.BuildingID, u.IsCommon()
		} else {
			t.BuildingID = *in.BuildingID
		}
		if _, err := tx.BuildingByID(ctx, t.BuildingID); err != nil {
			return lookupErr(err, "Building does not exist")
		}
		f, err := l.dir.Facts(ctx, tx, callerID, t.BuildingID)
		if err != nil {
			return apperr.Internal(err)
		}
		if err := policy.CanCreateRequest(f, t); err != nil {
			return deny(err)
		}
		r.BuildingID = t.BuildingID
		if err := tx.CreateRequest(ctx, r); err != nil {
			return writeErr(err, "Maintenance request already exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.deps.Log.WithFields(logrus.Fields{
		"request_id": r.ID, "building_id": r.BuildingID, "user_id": callerID,
	}).Info("maintenance request created")
	return r, nil
}

// List: manager/owner видят все заявки здания, остальные видят заявки на всё
// здание и по своим юнитам. Новые первыми.
func (l *Lifecycle) List(ctx context.Context, callerID, buildingID uint) ([]RequestWithVotes, error) {
	out := []RequestWithVotes{}
	err := l.deps.run(ctx, func(tx store.Tx) error {
		if _, err := tx.BuildingByID(ctx, buildingID); err != nil {
			return lookupErr(err, "Building does not exist")
		}
		f, err := l.dir.Facts(ctx, tx, callerID, buildingID)
		if err != nil {
			return apperr.Internal(err)
		}
		if !f.BelongsToBuilding() {
			return deny(policy.ErrNotBuildingMember)
		}
		all, err := tx.ListRequests(ctx, buildingID)
		if err != nil {
			return apperr.Internal(err)
		}
		ids := make([]uint, 0, len(all))
		for i := range all {
			t, err := targetOf(ctx, tx, &all[i])
			if err != nil {
				return apperr.Internal(err)
			}
			if !policy.Visible(f, t) {
				continue
			}
			out = append(out, RequestWithVotes{Maintenance: all[i]})
			ids = append(ids, all[i].ID)
		}
		if len(ids) == 0 {
			return nil
		}
		counts, err := tx.VoteCounts(ctx, ids)
		if err != nil {
			return apperr.Internal(err)
		}
		for i := range out {
			out[i].Votes = counts[out[i].Maintenance.ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Lifecycle) Get(ctx context.Context, callerID, id uint) (*RequestWithVotes, error) {
	var res *RequestWithVotes
	err := l.deps.run(ctx, func(tx store.Tx) error {
		r, t, f, err := l.load(ctx, tx, callerID, id)
		if err != nil {
			return err
		}
		if err := policy.CanViewRequest(f, t); err != nil {
			return deny(err)
		}
		counts, err := tx.VoteCounts(ctx, []uint{r.ID})
		if err != nil {
			return apperr.Internal(err)
		}
		res = &RequestWithVotes{Maintenance: *r, Votes: counts[r.ID]}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SetStatus выставляет любой из трёх статусов; RESOLVED можно переоткрыть.
func (l *Lifecycle) SetStatus(ctx context.Context, callerID, id uint, status string) (*models.MaintenanceRequest, error) {
	st, err := models.ParseStatus(status)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Message: "status must be one of open, in_progress, resolved", Err: err}
	}
	var r *models.MaintenanceRequest
	err = l.deps.run(ctx, func(tx store.Tx) error {
		var (
			t   policy.RequestTarget
			f   policy.Facts
			err error
		)
		if r, t, f, err = l.load(ctx, tx, callerID, id); err != nil {
			return err
		}
		if err := policy.CanTransitionRequest(f, t); err != nil {
			return deny(err)
		}
		at := l.deps.now()
		if err := tx.UpdateRequestStatus(ctx, id, st, at); err != nil {
			return lookupErr(err, "Maintenance request does not exist")
		}
		r.Status, r.UpdatedAt = st, at
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.deps.Log.WithFields(logrus.Fields{"request_id": id, "status": st, "user_id": callerID}).Info("maintenance request status changed")
	return r, nil
}
