package repository

import (
	"context"
	"strings"

	"github.com/civicreport/civicreport-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IssueRepository struct {
	db *gorm.DB
}

func NewIssueRepository(db *gorm.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// Transaction runs fn against a repository bound to a single transaction.
func (r *IssueRepository) Transaction(ctx context.Context, fn func(tx *IssueRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&IssueRepository{db: tx})
	})
}

func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(issue).Error
}

func (r *IssueRepository) AddImages(ctx context.Context, images []models.IssueImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

func (r *IssueRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Issue{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// GetByID loads the issue with reporter, images and comments.
func (r *IssueRepository) GetByID(ctx context.Context, id uint) (*models.Issue, error) {
	var issue models.Issue
	err := r.db.WithContext(ctx).
		Preload("ReportedBy").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Comments.CommentedBy").
		First(&issue, id).Error
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// List returns one page of issues matching filter and the total match count.
func (r *IssueRepository) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Issue{})

	if filter.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
	}
	if filter.IsResolved != nil {
		q = q.Where("is_resolved = ?", *filter.IsResolved)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := containsPattern(search)
		q = q.Where(
			`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR reported_by_id IN (?)`,
			like, like,
			r.db.WithContext(ctx).Model(&models.User{}).Select("id").Where(`LOWER(email) LIKE ? ESCAPE '\'`, like),
		)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var issues []models.Issue
	err := q.
		Preload("ReportedBy").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&issues).Error
	if err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern is a case-insensitive LIKE pattern matching term literally.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func (r *IssueRepository) ListByReporter(ctx context.Context, userID uint) ([]models.Issue, error) {
	var issues []models.Issue
	err := r.db.WithContext(ctx).
		Preload("ReportedBy").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("reported_by_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&issues).Error
	return issues, err
}

type issueCount struct {
	IssueID uint
	N       int64
}

// Counts loads comment and like counts for every id in one grouped query each.
func (r *IssueRepository) Counts(ctx context.Context, ids []uint) (map[uint]models.IssueCounts, error) {
	counts := make(map[uint]models.IssueCounts, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var comments, likes []issueCount
	err := r.db.WithContext(ctx).Model(&models.IssueComment{}).
		Select("issue_id, COUNT(*) AS n").
		Where("issue_id IN ?", ids).
		Group("issue_id").
		Scan(&comments).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&models.IssueLike{}).
		Select("issue_id, COUNT(*) AS n").
		Where("issue_id IN ?", ids).
		Group("issue_id").
		Scan(&likes).Error
	if err != nil {
		return nil, err
	}

	for _, c := range comments {
		ic := counts[c.IssueID]
		ic.Comments = c.N
		counts[c.IssueID] = ic
	}
	for _, l := range likes {
		ic := counts[l.IssueID]
		ic.Likes = l.N
		counts[l.IssueID] = ic
	}
	return counts, nil
}

func (r *IssueRepository) LikesCount(ctx context.Context, issueID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.IssueLike{}).Where("issue_id = ?", issueID).Count(&count).Error
	return count, err
}

// UpdateFields writes the named columns of issue, leaving associations alone.
func (r *IssueRepository) UpdateFields(ctx context.Context, issue *models.Issue, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(issue).Omit(clause.Associations).Select(fields).Updates(issue).Error
}

// Delete removes the issue and everything hanging off it.
func (r *IssueRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("issue_id = ?", id).Delete(&models.IssueLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("issue_id = ?", id).Delete(&models.IssueComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("issue_id = ?", id).Delete(&models.IssueImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Issue{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
