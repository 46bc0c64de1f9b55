package kvstore

import (
	"context"
	"errors"

	"github.com/doneduardo/storefront/pkg/db/models"
	pkgerrors "github.com/doneduardo/storefront/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQL stores slots as rows of the cart_slots table, created by pkg/migrate.
type SQL struct {
	db        *gorm.DB
	namespace string
}

// NewSQL prefixes every key with namespace (usually the session id).
func NewSQL(db *gorm.DB, namespace string) *SQL {
	return &SQL{db: db, namespace: namespace}
}

func (s *SQL) Load(ctx context.Context, key string) ([]byte, error) {
	var slot models.CartSlot
	err := s.db.WithContext(ctx).Where("slot_key = ?", s.scoped(key)).Take(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.FromDB(err, "load cart slot")
	}
	return []byte(slot.Payload), nil
}

func (s *SQL) Save(ctx context.Context, key string, data []byte) error {
	slot := models.CartSlot{Key: s.scoped(key), Payload: string(data)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&slot).Error
	return pkgerrors.FromDB(err, "save cart slot")
}

func (s *SQL) Clear(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("slot_key = ?", s.scoped(key)).Delete(&models.CartSlot{}).Error
	return pkgerrors.FromDB(err, "clear cart slot")
}

func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQL) scoped(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}
