package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/hjiwane/apartment-society-backend/internal/models"
)

func (t *txStore) CreateRequest(_ context.Context, r *models.MaintenanceRequest) error {
	if _, ok := t.st.buildings[r.BuildingID]; !ok {
		return missing("building", r.BuildingID)
	}
	if r.UnitID != nil {
		if _, ok := t.st.units[*r.UnitID]; !ok {
			return missing("unit", *r.UnitID)
		}
	}
	if r.CreatedByUserID != nil {
		if _, ok := t.st.users[*r.CreatedByUserID]; !ok {
			return missing("user", *r.CreatedByUserID)
		}
	}
	r.ID = t.st.id("maintenance_requests")
	now := t.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	if r.Status == "" {
		r.Status = models.StatusOpen
	}
	stored := *r
	stored.UnitID = copyPtr(r.UnitID)
	stored.CreatedByUserID = copyPtr(r.CreatedByUserID)
	stored.Description = copyPtr(r.Description)
	stored.Building, stored.Unit, stored.Creator = nil, nil, nil
	t.st.requests[r.ID] = stored
	return nil
}

func (t *txStore) RequestByID(_ context.Context, id uint) (*models.MaintenanceRequest, error) {
	r, ok := t.st.requests[id]
	if !ok {
		return nil, missing("maintenance request", id)
	}
	return &r, nil
}

func (t *txStore) ListRequests(_ context.Context, buildingID uint) ([]models.MaintenanceRequest, error) {
	var out []models.MaintenanceRequest
	for _, r := range t.st.requests {
		if r.BuildingID == buildingID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (t *txStore) UpdateRequestStatus(_ context.Context, id uint, status models.Status, at time.Time) error {
	r, ok := t.st.requests[id]
	if !ok {
		return missing("maintenance request", id)
	}
	r.Status = status
	r.UpdatedAt = at
	t.st.requests[id] = r
	return nil
}

func (t *txStore) CreateVote(_ context.Context, v *models.Vote) error {
	if _, ok := t.st.requests[v.RequestID]; !ok {
		return missing("maintenance request", v.RequestID)
	}
	if _, ok := t.st.users[v.UserID]; !ok {
		return missing("user", v.UserID)
	}
	k := voteKey{v.RequestID, v.UserID}
	if _, ok := t.st.votes[k]; ok {
		return duplicate("vote")
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = t.now()
	}
	stored := *v
	stored.Request, stored.User = nil, nil
	t.st.votes[k] = stored
	return nil
}

func (t *txStore) DeleteVote(_ context.Context, requestID, userID uint) error {
	k := voteKey{requestID, userID}
	if _, ok := t.st.votes[k]; !ok {
		return missing("vote on request", requestID)
	}
	delete(t.st.votes, k)
	return nil
}

func (t *txStore) VoteExists(_ context.Context, requestID, userID uint) (bool, error) {
	_, ok := t.st.votes[voteKey{requestID, userID}]
	return ok, nil
}

func (t *txStore) VoteCounts(_ context.Context, requestIDs []uint) (map[uint]int64, error) {
	want := make(map[uint]bool, len(requestIDs))
	for _, id := range requestIDs {
		want[id] = true
	}
	out := make(map[uint]int64, len(requestIDs))
	for k := range t.st.votes {
		if want[k.requestID] {
			out[k.requestID]++
		}
	}
	return out, nil
}
