package repository

import (
	"context"

	"github.com/civicreport/civicreport-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) Exists(ctx context.Context, issueID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.IssueLike{}).
		Where("issue_id = ? AND liked_by_id = ?", issueID, userID).
		Count(&count).Error
	return count > 0, err
}

// Create inserts the like unless one already exists. created is false for an existing like.
func (r *LikeRepository) Create(ctx context.Context, issueID, userID uint) (created bool, err error) {
	like := models.IssueLike{IssueID: issueID, LikedByID: userID}
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Toggle removes the caller's like if present, otherwise adds it. It reports the new state.
func (r *LikeRepository) Toggle(ctx context.Context, issueID, userID uint) (liked bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("issue_id = ? AND liked_by_id = ?", issueID, userID).Delete(&models.IssueLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}

		like := models.IssueLike{IssueID: issueID, LikedByID: userID}
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
			return err
		}
		liked = true
		return nil
	})
	return liked, err
}

func (r *LikeRepository) ListByIssue(ctx context.Context, issueID uint) ([]models.IssueLike, error) {
	var likes []models.IssueLike
	err := r.db.WithContext(ctx).
		Preload("LikedBy").
		Where("issue_id = ?", issueID).
		Order("created_at ASC, id ASC").
		Find(&likes).Error
	return likes, err
}
