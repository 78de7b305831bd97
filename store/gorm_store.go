package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/threadline/comments-backend/models"
	"github.com/threadline/comments-backend/services"
)

// GormStore keeps comments in a relational table. Descendants are removed by
// the ON DELETE CASCADE constraint on parent_id.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the comments table.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&models.Comment{})
}

func (s *GormStore) ListAll(ctx context.Context) ([]models.Comment, error) {
	var records []models.Comment
	err := s.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return records, nil
}

func (s *GormStore) Insert(ctx context.Context, c models.Comment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !c.IsRoot() {
			var count int64
			if err := tx.Model(&models.Comment{}).Where("id = ?", *c.ParentID).Count(&count).Error; err != nil {
				return fmt.Errorf("look up parent: %w", err)
			}
			if count == 0 {
				return services.ErrParentNotFound
			}
		}
		if err := tx.Omit(clause.Associations).Create(&c).Error; err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		return nil
	})
}

func (s *GormStore) DeleteCascading(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{}).Error
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// Ping checks the underlying connection.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
