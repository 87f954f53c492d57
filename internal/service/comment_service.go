package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/civicreport/civicreport-api/internal/metrics"
	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CommentService struct {
	commentRepo *repository.CommentRepository
	issueRepo   *repository.IssueRepository
	notify      *Dispatcher
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewCommentService(
	commentRepo *repository.CommentRepository,
	issueRepo *repository.IssueRepository,
	notify *Dispatcher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		issueRepo:   issueRepo,
		notify:      notify,
		metrics:     m,
		logger:      logger.Named("comment"),
	}
}

// List returns the comments of an issue, oldest first. An unknown issue has no comments.
func (s *CommentService) List(ctx context.Context, issueID uint) ([]models.CommentResponse, error) {
	comments, err := s.commentRepo.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	out := make([]models.CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, comments[i].ToResponse())
	}
	return out, nil
}

// Create adds a comment and emails the reporter unless they wrote it themselves.
func (s *CommentService) Create(ctx context.Context, user *models.User, req models.CreateCommentRequest) (*models.IssueComment, error) {
	text := strings.TrimSpace(req.Text)
	if req.IssueID == 0 || text == "" {
		return nil, ErrCommentIncomplete
	}

	issue, err := s.issueRepo.GetByID(ctx, uint(req.IssueID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}

	comment := &models.IssueComment{
		IssueID:       issue.ID,
		Text:          text,
		CommentedByID: user.ID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	comment.CommentedBy = *user

	s.metrics.CommentCreated()
	s.logger.Info("comment added", zap.Uint("issue_id", issue.ID), zap.Uint("comment_id", comment.ID))

	if issue.ReportedByID != user.ID {
		s.notify.NewComment(issue, user, text)
	}
	return comment, nil
}

// Delete removes a comment written by the caller, or any comment for staff.
func (s *CommentService) Delete(ctx context.Context, user *models.User, id uint) error {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	if !canModify(user, comment.CommentedByID) {
		return ErrPermissionDenied
	}

	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
