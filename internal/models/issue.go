package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type Issue struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Title        string         `json:"title" gorm:"size:255;not null"`
	Description  string         `json:"description" gorm:"type:text;not null"`
	IsResolved   bool           `json:"is_resolved" gorm:"not null;default:false;index"`
	Category     string         `json:"category" gorm:"size:100;index"`
	Address      string         `json:"address" gorm:"size:255"`
	ReportedByID uint           `json:"reported_by_id" gorm:"not null;index"`
	ReportedBy   User           `json:"-" gorm:"foreignKey:ReportedByID;constraint:OnDelete:CASCADE"`
	Images       []IssueImage   `json:"-" gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE"`
	Comments     []IssueComment `json:"-" gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE"`
	Likes        []IssueLike    `json:"-" gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type IssueImage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	IssueID   uint      `json:"issue_id" gorm:"not null;index"`
	Key       string    `json:"key" gorm:"size:255;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type IssueComment struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	IssueID       uint      `json:"issue_id" gorm:"not null;index"`
	Text          string    `json:"text" gorm:"type:text;not null"`
	CommentedByID uint      `json:"commented_by_id" gorm:"not null;index"`
	CommentedBy   User      `json:"-" gorm:"foreignKey:CommentedByID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IssueLike is a toggle flag; deleting the row is an unlike.
type IssueLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	IssueID   uint      `json:"issue_id" gorm:"not null;uniqueIndex:idx_issue_likes_issue_user;index"`
	LikedByID uint      `json:"liked_by_id" gorm:"not null;uniqueIndex:idx_issue_likes_issue_user;index"`
	LikedBy   User      `json:"-" gorm:"foreignKey:LikedByID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IssueFilter narrows the public issue listing.
type IssueFilter struct {
	Category   string
	IsResolved *bool
	Search     string
	Page       int
	PageSize   int
}

type IssueImageResponse struct {
	ID    uint   `json:"id"`
	Image string `json:"image"`
}

type CommentResponse struct {
	ID        uint      `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type LikeResponse struct {
	User string    `json:"user"`
	Time time.Time `json:"time"`
}

type IssueListResponse struct {
	ID            uint                 `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Category      *string              `json:"category"`
	Address       *string              `json:"address"`
	IsResolved    bool                 `json:"is_resolved"`
	ReportedBy    string               `json:"reported_by"`
	Images        []IssueImageResponse `json:"images"`
	CommentsCount int64                `json:"comments_count"`
	LikesCount    int64                `json:"likes_count"`
	CreatedAt     time.Time            `json:"created_at"`
}

type IssueDetailResponse struct {
	ID          uint                 `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    *string              `json:"category"`
	Address     *string              `json:"address"`
	IsResolved  bool                 `json:"is_resolved"`
	ReportedBy  string               `json:"reported_by"`
	Images      []IssueImageResponse `json:"images"`
	Comments    []CommentResponse    `json:"comments"`
	LikesCount  int64                `json:"likes_count"`
	CreatedAt   time.Time            `json:"created_at"`
}

type IssuePage struct {
	Count    int64               `json:"count"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Results  []IssueListResponse `json:"results"`
}

// IssueCounts carries aggregate counts loaded next to an issue.
type IssueCounts struct {
	Comments int64
	Likes    int64
}

func (c *IssueComment) ToResponse() CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		User:      c.CommentedBy.Email,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

func (i *Issue) imageResponses(urlFor func(string) string) []IssueImageResponse {
	images := make([]IssueImageResponse, 0, len(i.Images))
	for _, img := range i.Images {
		images = append(images, IssueImageResponse{ID: img.ID, Image: urlFor(img.Key)})
	}
	return images
}

func (i *Issue) ToListResponse(urlFor func(string) string, counts IssueCounts) IssueListResponse {
	return IssueListResponse{
		ID:            i.ID,
		Title:         i.Title,
		Description:   i.Description,
		Category:      nullable(i.Category),
		Address:       nullable(i.Address),
		IsResolved:    i.IsResolved,
		ReportedBy:    i.ReportedBy.Email,
		Images:        i.imageResponses(urlFor),
		CommentsCount: counts.Comments,
		LikesCount:    counts.Likes,
		CreatedAt:     i.CreatedAt,
	}
}

func (i *Issue) ToDetailResponse(urlFor func(string) string, likes int64) IssueDetailResponse {
	comments := make([]CommentResponse, 0, len(i.Comments))
	for _, c := range i.Comments {
		comments = append(comments, c.ToResponse())
	}
	return IssueDetailResponse{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Category:    nullable(i.Category),
		Address:     nullable(i.Address),
		IsResolved:  i.IsResolved,
		ReportedBy:  i.ReportedBy.Email,
		Images:      i.imageResponses(urlFor),
		Comments:    comments,
		LikesCount:  likes,
		CreatedAt:   i.CreatedAt,
	}
}

// FlexibleID accepts an id sent either as a JSON number or as a string.
type FlexibleID uint

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", data)
	}
	*id = FlexibleID(n)
	return nil
}

var _ json.Unmarshaler = (*FlexibleID)(nil)

type IssueIDRequest struct {
	IssueID FlexibleID `json:"issue_id" form:"issue_id"`
}

type CreateCommentRequest struct {
	IssueID FlexibleID `json:"issue_id" form:"issue_id"`
	Text    string     `json:"text" form:"text"`
}

type CreateIssueRequest struct {
	Title       string `json:"title" form:"title" validate:"required,max=255"`
	Description string `json:"description" form:"description" validate:"required"`
	Category    string `json:"category" form:"category" validate:"omitempty,max=100"`
	Address     string `json:"address" form:"address" validate:"omitempty,max=255"`
}

type UpdateIssueRequest struct {
	Title       *string `json:"title" form:"title" validate:"omitnil,required,max=255"`
	Description *string `json:"description" form:"description" validate:"omitnil,required"`
	Category    *string `json:"category" form:"category" validate:"omitempty,max=100"`
	Address     *string `json:"address" form:"address" validate:"omitempty,max=255"`
	IsResolved  *bool   `json:"is_resolved" form:"is_resolved"`
}

type ToggleLikeResponse struct {
	Liked bool `json:"liked"`
}
