package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/civicreport/civicreport-api/pkg/storage"
	"github.com/gabriel-vasile/mimetype"
)

const (
	MaxProfilePicSize = 5 << 20
	MinIssueImages    = 1
	MaxIssueImages    = 10
)

// detectedFile is an opened upload with its media type sniffed from content.
type detectedFile struct {
	file multipart.File
	size int64
	mime *mimetype.MIME
}

func (f *detectedFile) Close() error {
	return f.file.Close()
}

// MediaType drops parameters such as charset.
func (f *detectedFile) MediaType() string {
	return strings.SplitN(f.mime.String(), ";", 2)[0]
}

func (f *detectedFile) IsImage() bool {
	return strings.HasPrefix(f.MediaType(), "image/")
}

// Ext is the extension without the dot, "bin" when unknown.
func (f *detectedFile) Ext() string {
	ext := strings.TrimPrefix(f.mime.Extension(), ".")
	if ext == "" {
		return "bin"
	}
	return ext
}

func openDetected(fh *multipart.FileHeader) (*detectedFile, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to detect content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	return &detectedFile{file: f, size: fh.Size, mime: mt}, nil
}

func (f *detectedFile) upload(ctx context.Context, store storage.StorageService, key string) error {
	return store.Upload(ctx, key, f.file, f.size, f.MediaType())
}

// validateProfilePic applies the size and type rules shared by registration and picture updates.
func validateProfilePic(fh *multipart.FileHeader) (*detectedFile, error) {
	if fh.Size > MaxProfilePicSize {
		return nil, fieldError("profile_pic", "Image must be under 5MB.")
	}

	df, err := openDetected(fh)
	if err != nil {
		return nil, err
	}
	if !df.IsImage() {
		df.Close()
		return nil, fieldError("profile_pic", "Only image files are allowed.")
	}
	return df, nil
}

func profilePicKey(userID uint, ext string) string {
	return fmt.Sprintf("profile_pics/user_%d_profile.%s", userID, ext)
}

func closeAll(files []*detectedFile) {
	for _, f := range files {
		f.Close()
	}
}
