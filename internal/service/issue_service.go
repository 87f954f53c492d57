package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/civicreport/civicreport-api/internal/metrics"
	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/repository"
	"github.com/civicreport/civicreport-api/pkg/qrcode"
	"github.com/civicreport/civicreport-api/pkg/storage"
	"github.com/civicreport/civicreport-api/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type IssueService struct {
	issueRepo *repository.IssueRepository
	storage   storage.StorageService
	qr        *qrcode.QRService
	notify    *Dispatcher
	validator *utils.Validator
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewIssueService(
	issueRepo *repository.IssueRepository,
	store storage.StorageService,
	qr *qrcode.QRService,
	notify *Dispatcher,
	validator *utils.Validator,
	m *metrics.Metrics,
	logger *zap.Logger,
) *IssueService {
	return &IssueService{
		issueRepo: issueRepo,
		storage:   store,
		qr:        qr,
		notify:    notify,
		validator: validator,
		metrics:   m,
		logger:    logger.Named("issue"),
	}
}

func canModify(user *models.User, ownerID uint) bool {
	return user != nil && (user.IsStaff || user.ID == ownerID)
}

func issueImageKey(issueID uint, ext string) string {
	return fmt.Sprintf("issue_images/%d/%s.%s", issueID, strings.ReplaceAll(uuid.NewString(), "-", ""), ext)
}

// Create stores the issue and its images together. Uploaded objects are removed if anything fails.
func (s *IssueService) Create(ctx context.Context, user *models.User, req models.CreateIssueRequest, files []*multipart.FileHeader) (*models.IssueDetailResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	verr := &ValidationError{}
	if err := s.validator.Struct(req); err != nil {
		fields := s.validator.Fields(err)
		if fields == nil {
			return nil, err
		}
		verr.Merge(fields)
	}

	var images []*detectedFile
	defer func() { closeAll(images) }()

	switch {
	case len(files) < MinIssueImages:
		verr.Add("uploaded_images", "At least one image is required.")
	case len(files) > MaxIssueImages:
		verr.Add("uploaded_images", "Maximum 10 images allowed.")
	default:
		for _, fh := range files {
			df, err := openDetected(fh)
			if err != nil {
				return nil, err
			}
			images = append(images, df)
			if err := s.validator.Var(df.MediaType(), "supported_image"); err != nil {
				verr.Add("uploaded_images", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
				break
			}
		}
	}

	if !verr.Empty() {
		return nil, verr
	}

	issue := &models.Issue{
		Title:        req.Title,
		Description:  req.Description,
		Category:     strings.TrimSpace(req.Category),
		Address:      strings.TrimSpace(req.Address),
		ReportedByID: user.ID,
	}

	var uploaded []string
	err := s.issueRepo.Transaction(ctx, func(tx *repository.IssueRepository) error {
		if err := tx.Create(ctx, issue); err != nil {
			return err
		}

		rows := make([]models.IssueImage, 0, len(images))
		for _, img := range images {
			key := issueImageKey(issue.ID, img.Ext())
			if err := img.upload(ctx, s.storage, key); err != nil {
				return fmt.Errorf("failed to store issue image: %w", err)
			}
			uploaded = append(uploaded, key)
			rows = append(rows, models.IssueImage{IssueID: issue.ID, Key: key})
		}
		return tx.AddImages(ctx, rows)
	})
	if err != nil {
		s.removeObjects(ctx, uploaded)
		return nil, err
	}

	s.metrics.IssueCreated()
	s.logger.Info("issue created", zap.Uint("issue_id", issue.ID), zap.Uint("user_id", user.ID), zap.Int("images", len(uploaded)))

	return s.Get(ctx, issue.ID)
}

func (s *IssueService) List(ctx context.Context, filter models.IssueFilter) (*models.IssuePage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = DefaultPageSize
	}
	if filter.PageSize > MaxPageSize {
		filter.PageSize = MaxPageSize
	}

	issues, total, err := s.issueRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	results, err := s.renderList(ctx, issues)
	if err != nil {
		return nil, err
	}

	return &models.IssuePage{
		Count:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Results:  results,
	}, nil
}

func (s *IssueService) ListMine(ctx context.Context, userID uint) ([]models.IssueListResponse, error) {
	issues, err := s.issueRepo.ListByReporter(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	return s.renderList(ctx, issues)
}

func (s *IssueService) renderList(ctx context.Context, issues []models.Issue) ([]models.IssueListResponse, error) {
	ids := make([]uint, 0, len(issues))
	for _, i := range issues {
		ids = append(ids, i.ID)
	}

	counts, err := s.issueRepo.Counts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count issue activity: %w", err)
	}

	results := make([]models.IssueListResponse, 0, len(issues))
	for i := range issues {
		results = append(results, issues[i].ToListResponse(s.storage.URL, counts[issues[i].ID]))
	}
	return results, nil
}

func (s *IssueService) load(ctx context.Context, id uint) (*models.Issue, error) {
	issue, err := s.issueRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	return issue, nil
}

func (s *IssueService) Get(ctx context.Context, id uint) (*models.IssueDetailResponse, error) {
	issue, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	likes, err := s.issueRepo.LikesCount(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := issue.ToDetailResponse(s.storage.URL, likes)
	return &resp, nil
}

// Update lets the reporter or staff edit an issue. The reporter is emailed when it becomes resolved.
func (s *IssueService) Update(ctx context.Context, user *models.User, id uint, req models.UpdateIssueRequest, partial bool) (*models.IssueDetailResponse, error) {
	issue, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(user, issue.ReportedByID) {
		return nil, ErrPermissionDenied
	}

	verr := &ValidationError{}
	if !partial {
		if req.Title == nil {
			verr.Add("title", "This field is required.")
		}
		if req.Description == nil {
			verr.Add("description", "This field is required.")
		}
	}
	if err := s.validator.Struct(req); err != nil {
		fields := s.validator.Fields(err)
		if fields == nil {
			return nil, err
		}
		verr.Merge(fields)
	}
	if !verr.Empty() {
		return nil, verr
	}

	wasResolved := issue.IsResolved

	var fields []string
	if req.Title != nil {
		issue.Title = strings.TrimSpace(*req.Title)
		fields = append(fields, "title")
	}
	if req.Description != nil {
		issue.Description = strings.TrimSpace(*req.Description)
		fields = append(fields, "description")
	}
	if req.Category != nil {
		issue.Category = strings.TrimSpace(*req.Category)
		fields = append(fields, "category")
	}
	if req.Address != nil {
		issue.Address = strings.TrimSpace(*req.Address)
		fields = append(fields, "address")
	}
	if req.IsResolved != nil {
		issue.IsResolved = *req.IsResolved
		fields = append(fields, "is_resolved")
	}

	if err := s.issueRepo.UpdateFields(ctx, issue, fields...); err != nil {
		return nil, fmt.Errorf("failed to update issue: %w", err)
	}

	if !wasResolved && issue.IsResolved {
		s.metrics.IssueResolved()
		s.logger.Info("issue resolved", zap.Uint("issue_id", issue.ID), zap.Uint("by", user.ID))
		s.notify.IssueResolved(issue)
	}

	return s.Get(ctx, issue.ID)
}

// Delete removes an issue the caller owns (or any issue for staff). staffOnly restricts it to staff.
func (s *IssueService) Delete(ctx context.Context, user *models.User, id uint, staffOnly bool) error {
	issue, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if staffOnly {
		if user == nil || !user.IsStaff {
			return ErrPermissionDenied
		}
	} else if !canModify(user, issue.ReportedByID) {
		return ErrPermissionDenied
	}

	if err := s.issueRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIssueNotFound
		}
		return fmt.Errorf("failed to delete issue: %w", err)
	}

	keys := make([]string, 0, len(issue.Images))
	for _, img := range issue.Images {
		keys = append(keys, img.Key)
	}
	s.removeObjects(ctx, keys)

	s.logger.Info("issue deleted", zap.Uint("issue_id", id), zap.Uint("by", user.ID))
	return nil
}

// QRCode renders a PNG share code for an existing issue.
func (s *IssueService) QRCode(ctx context.Context, id uint, size int) ([]byte, error) {
	exists, err := s.issueRepo.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrIssueNotFound
	}
	return s.qr.IssueQRCode(id, size)
}

func (s *IssueService) removeObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to remove stored object", zap.String("key", key), zap.Error(err))
		}
	}
}
