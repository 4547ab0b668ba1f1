package core

import (
	"context"
	"errors"
	"strings"

	"github.com/hjiwane/apartment-society-backend/internal/apperr"
	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/policy"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

// CredentialHasher: хэширование паролей (bcrypt в проде).
type CredentialHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer: выпуск и разбор access-токенов.
type TokenIssuer interface {
	Issue(userID uint) (string, error)
	Resolve(token string) (uint, error)
}

type Accounts struct {
	deps   Deps
	hasher CredentialHasher
	tokens TokenIssuer
}

// UserView: пользователь и юниты, которые вызывающему разрешено видеть.
type UserView struct {
	models.User
	UnitIDs []uint `json:"unit_ids"`
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (a *Accounts) Signup(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}
	hash, err := a.hasher.Hash(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	u := &models.User{Email: email, Password: hash}
	err = a.deps.run(ctx, func(tx store.Tx) error {
		if _, err := tx.UserByEmail(ctx, email); err == nil {
			return apperr.Conflict("User with email %s already exists", email)
		} else if !errors.Is(err, store.ErrNotFound) {
			return apperr.Internal(err)
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			return writeErr(err, "User with email "+email+" already exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.deps.Log.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// Login проверяет пароль и выдаёт токен. Неизвестный email и неверный
// пароль неразличимы для клиента.
func (a *Accounts) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	var u *models.User
	err := a.deps.run(ctx, func(tx store.Tx) error {
		var err error
		u, err = tx.UserByEmail(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Forbidden("Invalid Credentials")
		}
		if err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if !a.hasher.Verify(password, u.Password) {
		a.deps.Log.WithField("user_id", u.ID).Debug("login rejected")
		return "", apperr.Forbidden("Invalid Credentials")
	}
	tok, err := a.tokens.Issue(u.ID)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return tok, nil
}

// Authenticate разбирает токен и проверяет, что пользователь ещё существует.
func (a *Accounts) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := a.tokens.Resolve(token)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindUnauthorized, Message: "Could not validate credentials", Err: err}
	}
	var u *models.User
	err = a.deps.run(ctx, func(tx store.Tx) error {
		var err error
		u, err = tx.UserByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Unauthorized("Could not validate credentials")
		}
		if err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser: себя видно целиком; чужого пользователя видит только manager/owner
// общего здания, и только его юниты в таких зданиях.
func (a *Accounts) GetUser(ctx context.Context, callerID, userID uint) (*UserView, error) {
	var view *UserView
	err := a.deps.run(ctx, func(tx store.Tx) error {
		u, err := tx.UserByID(ctx, userID)
		if err != nil {
			return lookupErr(err, "User does not exist")
		}
		rows, err := tx.MembershipsOfUser(ctx, userID)
		if err != nil {
			return apperr.Internal(err)
		}
		view = &UserView{User: *u, UnitIDs: []uint{}}
		if callerID == userID {
			for _, r := range rows {
				view.UnitIDs = append(view.UnitIDs, r.Unit.ID)
			}
			return nil
		}

		var dir Directory
		privileged := make(map[uint]bool)
		for _, r := range rows {
			b := r.Unit.BuildingID
			ok, seen := privileged[b]
			if !seen {
				f, err := dir.Facts(ctx, tx, callerID, b)
				if err != nil {
					return apperr.Internal(err)
				}
				ok = f.IsPrivileged()
				privileged[b] = ok
			}
			if ok {
				view.UnitIDs = append(view.UnitIDs, r.Unit.ID)
			}
		}
		if len(view.UnitIDs) == 0 {
			return deny(policy.ErrManagerRequired)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

