package kvstore

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is a single persisted key-value row.
type Record struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (Record) TableName() string {
	return "kv_records"
}

// GormBackend persists records through gorm, sqlite or postgres depending on
// how the *gorm.DB was opened.
type GormBackend struct {
	DB *gorm.DB
}

func NewGormBackend(db *gorm.DB) (*GormBackend, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	return &GormBackend{DB: db}, nil
}

func (b *GormBackend) Load(key string) ([]byte, error) {
	var rec Record
	if err := b.DB.Where("key = ?", key).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec.Value, nil
}

func (b *GormBackend) Save(key string, value []byte) error {
	rec := Record{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return b.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
}

func (b *GormBackend) Delete(key string) error {
	return b.DB.Where("key = ?", key).Delete(&Record{}).Error
}

func (b *GormBackend) Keys(prefix string) ([]string, error) {
	var keys []string
	err := b.DB.Model(&Record{}).
		Where("key LIKE ?", prefix+"%").
		Order("key").
		Pluck("key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}
