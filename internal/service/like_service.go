package service

import (
	"context"
	"fmt"

	"github.com/civicreport/civicreport-api/internal/metrics"
	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/repository"
)

type LikeService struct {
	likeRepo  *repository.LikeRepository
	issueRepo *repository.IssueRepository
	metrics   *metrics.Metrics
}

func NewLikeService(likeRepo *repository.LikeRepository, issueRepo *repository.IssueRepository, m *metrics.Metrics) *LikeService {
	return &LikeService{
		likeRepo:  likeRepo,
		issueRepo: issueRepo,
		metrics:   m,
	}
}

func (s *LikeService) requireIssue(ctx context.Context, issueID uint) error {
	if issueID == 0 {
		return ErrIssueIDRequired
	}
	exists, err := s.issueRepo.Exists(ctx, issueID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrIssueNotFound
	}
	return nil
}

// Like adds the caller's like; liking twice is an error.
func (s *LikeService) Like(ctx context.Context, user *models.User, issueID uint) error {
	if err := s.requireIssue(ctx, issueID); err != nil {
		return err
	}

	created, err := s.likeRepo.Create(ctx, issueID, user.ID)
	if err != nil {
		return fmt.Errorf("failed to like issue: %w", err)
	}
	if !created {
		return ErrAlreadyLiked
	}

	s.metrics.LikeChanged(true)
	return nil
}

// Toggle flips the caller's like and returns the new state.
func (s *LikeService) Toggle(ctx context.Context, user *models.User, issueID uint) (bool, error) {
	if err := s.requireIssue(ctx, issueID); err != nil {
		return false, err
	}

	liked, err := s.likeRepo.Toggle(ctx, issueID, user.ID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle like: %w", err)
	}

	s.metrics.LikeChanged(liked)
	return liked, nil
}

func (s *LikeService) List(ctx context.Context, issueID uint) ([]models.LikeResponse, error) {
	likes, err := s.likeRepo.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}

	out := make([]models.LikeResponse, 0, len(likes))
	for _, l := range likes {
		out = append(out, models.LikeResponse{User: l.LikedBy.Email, Time: l.CreatedAt})
	}
	return out, nil
}
