package qrcode

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const DefaultSize = 256

// QRService renders share codes that point at an issue's public page.
type QRService struct {
	baseURL string
}

// NewQRService takes the frontend origin, e.g. "https://civicreport.app".
func NewQRService(baseURL string) *QRService {
	return &QRService{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *QRService) IssueURL(issueID uint) string {
	return fmt.Sprintf("%s/issues/%d", s.baseURL, issueID)
}

// IssueQRCode returns a PNG encoding the issue's URL. Sizes outside 64..1024 fall back to DefaultSize.
func (s *QRService) IssueQRCode(issueID uint, size int) ([]byte, error) {
	if size < 64 || size > 1024 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(s.IssueURL(issueID), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code PNG: %w", err)
	}

	return png, nil
}
