package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/novamart/storefront-backend/internal/cart"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row is the cart_snapshots table managed by the goose migration.
type Row struct {
	CartKey   string    `gorm:"column:cart_key;primaryKey"`
	Items     string    `gorm:"column:items;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Row) TableName() string {
	return "cart_snapshots"
}

// SQLStore persists snapshots in a relational row, one per cart key.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Save(ctx context.Context, key string, items []cart.LineItem) error {
	data, err := encodeItems(items)
	if err != nil {
		return err
	}
	row := Row{CartKey: key, Items: string(data), UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
		}).
		Create(&row).Error
}

func (s *SQLStore) Load(ctx context.Context, key string) ([]cart.LineItem, error) {
	var row Row
	err := s.db.WithContext(ctx).Where("cart_key = ?", key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeItems([]byte(row.Items))
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("cart_key = ?", key).Delete(&Row{}).Error
}
