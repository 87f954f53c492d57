package handler_test

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments(t *testing.T) {
	app := testutil.NewApp(t)
	owner := testutil.CreateUser(t, app.DB, "owner@example.com")
	neighbour := testutil.CreateUser(t, app.DB, "neighbour@example.com", testutil.FirstName("Bo"))
	id := app.CreateIssue(t, owner, "Pothole", nil, 1)

	resp, env := app.Do(t, testutil.JSON(t, http.MethodPost, "/issues/comments/create",
		map[string]interface{}{"issue_id": fmt.Sprint(id), "text": "  Still there  "}, app.Token(t, neighbour)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var msg models.Message
	env.Decode(t, &msg)
	assert.Equal(t, "Comment added successfully", msg.Message)

	resp, _ = app.Do(t, testutil.JSON(t, http.MethodPost, "/issues/comments/create",
		map[string]interface{}{"issue_id": id, "text": "Thanks"}, app.Token(t, owner)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env = app.Do(t, testutil.JSON(t, http.MethodGet, fmt.Sprintf("/issues/comments/of/%d", id), nil, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comments []models.CommentResponse
	env.Decode(t, &comments)
	require.Len(t, comments, 2)
	assert.Equal(t, "Still there", comments[0].Text)
	assert.Equal(t, "neighbour@example.com", comments[0].User)
	assert.Equal(t, "owner@example.com", comments[1].User)

	resp, env = app.Do(t, testutil.JSON(t, http.MethodGet, fmt.Sprintf("/issues/of/%d", id), nil, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var issue models.IssueDetailResponse
	env.Decode(t, &issue)
	assert.Len(t, issue.Comments, 2)

	app.Dispatcher.Wait()
	var notified []testutil.Email
	for _, e := range app.Notifier.Sent() {
		if e.Template == "new_comment" {
			notified = append(notified, e)
		}
	}
	require.Len(t, notified, 1, "the reporter's own comment sends nothing")
	assert.Equal(t, "owner@example.com", notified[0].To)
	assert.Equal(t, "Still there", notified[0].Text)
}

func TestCreateComment_Invalid(t *testing.T) {
	app := testutil.NewApp(t)
	user := testutil.CreateUser(t, app.DB, "ana@example.com")
	token := app.Token(t, user)

	resp, env := app.Do(t, testutil.JSON(t, http.MethodPost, "/issues/comments/create",
		map[string]interface{}{"text": "orphan"}, token))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "issue_id and text are required", env.Error.Message)

	resp, _ = app.Do(t, testutil.JSON(t, http.MethodPost, "/issues/comments/create",
		map[string]interface{}{"issue_id": 1, "text": "   "}, token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = app.Do(t, testutil.JSON(t, http.MethodPost, "/issues/comments/create",
		map[string]interface{}{"issue_id": 404, "text": "hello"}, token))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No Issue matches the given query.", env.Error.Message)

	resp, _ = app.Do(t, testutil.JSON(t, http.MethodPost, "/issues/comments/create",
		map[string]interface{}{"issue_id": 1, "text": "hello"}, ""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListComments_UnknownIssue(t *testing.T) {
	app := testutil.NewApp(t)

	resp, env := app.Do(t, testutil.JSON(t, http.MethodGet, "/issues/comments/of/123", nil, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comments []models.CommentResponse
	env.Decode(t, &comments)
	assert.Empty(t, comments)
}

func TestDeleteComment(t *testing.T) {
	app := testutil.NewApp(t)
	owner := testutil.CreateUser(t, app.DB, "owner@example.com")
	author := testutil.CreateUser(t, app.DB, "author@example.com")
	admin := testutil.CreateUser(t, app.DB, "admin@example.com", testutil.Staff())
	id := app.CreateIssue(t, owner, "Pothole", nil, 1)

	for i := 0; i < 2; i++ {
		resp, _ := app.Do(t, testutil.JSON(t, http.MethodPost, "/issues/comments/create",
			map[string]interface{}{"issue_id": id, "text": fmt.Sprintf("comment %d", i)}, app.Token(t, author)))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	var comments []models.IssueComment
	require.NoError(t, app.DB.Order("id").Find(&comments).Error)
	require.Len(t, comments, 2)

	path := func(c models.IssueComment) string { return fmt.Sprintf("/issues/comments/delete/%d", c.ID) }

	resp, _ := app.Do(t, testutil.JSON(t, http.MethodDelete, path(comments[0]), nil, app.Token(t, owner)))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = app.Do(t, testutil.JSON(t, http.MethodDelete, path(comments[0]), nil, app.Token(t, author)))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = app.Do(t, testutil.JSON(t, http.MethodDelete, path(comments[1]), nil, app.Token(t, admin)))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, env := app.Do(t, testutil.JSON(t, http.MethodDelete, path(comments[1]), nil, app.Token(t, admin)))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No IssueComment matches the given query.", env.Error.Message)
}

func TestCreateComment_FormBodyNotificationKeepsText(t *testing.T) {
	app := testutil.NewApp(t)
	owner := testutil.CreateUser(t, app.DB, "owner@example.com")
	neighbour := testutil.CreateUser(t, app.DB, "neighbour@example.com", testutil.FirstName("Bo"))
	id := app.CreateIssue(t, owner, "Streetlight", nil, 1)
	token := app.Token(t, neighbour)

	resp, _ := app.Do(t, testutil.Form(http.MethodPost, "/issues/comments/create",
		url.Values{"issue_id": {fmt.Sprint(id)}, "text": {"streetlight-is-out"}}, token))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	app.Dispatcher.Wait()

	// Reuses the request buffers of the first request.
	resp, _ = app.Do(t, testutil.Form(http.MethodPost, "/issues/comments/create",
		url.Values{"issue_id": {fmt.Sprint(id)}, "text": {"yyyyyyyyyyyyyyyyyyyyyyyyyyyyyy"}}, token))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	app.Dispatcher.Wait()

	var texts []string
	for _, e := range app.Notifier.Sent() {
		if e.Template == "new_comment" {
			texts = append(texts, e.Text)
		}
	}
	assert.Equal(t, []string{"streetlight-is-out", "yyyyyyyyyyyyyyyyyyyyyyyyyyyyyy"}, texts)
}
