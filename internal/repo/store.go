package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

// Store: реализация store.Store поверх gorm (postgres/mysql).
// db должен быть открыт с gorm.Config{TranslateError: true}.
type Store struct{ db *gorm.DB }

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Tx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{db: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// txStore: все методы store.Tx внутри одной gorm-транзакции.
type txStore struct{ db *gorm.DB }

var _ store.Tx = (*txStore)(nil)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		// родитель удалён между проверкой и записью
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	default:
		return err
	}
}

// unitsOf: подзапрос id юнитов здания.
func (s *txStore) unitsOf(buildingID uint) *gorm.DB {
	return s.db.Model(&models.Unit{}).Select("id").Where("building_id = ?", buildingID)
}
