package repository

import (
	"context"

	"github.com/civicreport/civicreport-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.IssueComment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

func (r *CommentRepository) GetByID(ctx context.Context, id uint) (*models.IssueComment, error) {
	var comment models.IssueComment
	if err := r.db.WithContext(ctx).Preload("CommentedBy").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepository) ListByIssue(ctx context.Context, issueID uint) ([]models.IssueComment, error) {
	var comments []models.IssueComment
	err := r.db.WithContext(ctx).
		Preload("CommentedBy").
		Where("issue_id = ?", issueID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *CommentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.IssueComment{}, id).Error
}
