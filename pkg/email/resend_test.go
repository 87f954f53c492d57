package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *EmailService {
	t.Helper()
	s, err := NewEmailService(Config{
		From:        "no-reply@example.com",
		FromName:    "CivicReport",
		FrontendURL: "http://localhost:5173/",
	}, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestRenderTemplates(t *testing.T) {
	s := newTestService(t)

	html, err := s.render("welcome.html", map[string]interface{}{
		"FirstName": "Ana", "Email": "ana@example.com", "FrontendURL": s.frontendURL, "Year": 2026,
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Welcome to CivicReport, Ana!")
	assert.Contains(t, html, "ana@example.com")

	html, err = s.render("new_comment.html", map[string]interface{}{
		"FirstName": "Ana", "CommenterName": "Bo", "IssueTitle": "Pothole",
		"CommentText": "<b>fix it</b>", "IssueURL": s.IssueURL(3), "Year": 2026,
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Pothole")
	assert.Contains(t, html, "&lt;b&gt;fix it&lt;/b&gt;")
	assert.Contains(t, html, "http://localhost:5173/issues/3")
}

func TestSendWithoutAPIKeyIsNoop(t *testing.T) {
	s := newTestService(t)

	assert.NoError(t, s.SendWelcomeEmail("ana@example.com", "Ana"))
	assert.NoError(t, s.SendIssueResolvedEmail("ana@example.com", "Ana", 1, "Broken light"))
	assert.NoError(t, s.SendNewCommentEmail("ana@example.com", "Ana", "Bo", 1, "Broken light", "same here"))
}

func TestRenderUnknownTemplate(t *testing.T) {
	s := newTestService(t)

	_, err := s.render("missing.html", nil)
	assert.Error(t, err)
}
