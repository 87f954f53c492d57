// Package testutil builds in-memory databases and fully wired apps for tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/civicreport/civicreport-api/internal/config"
	"github.com/civicreport/civicreport-api/internal/handler"
	"github.com/civicreport/civicreport-api/internal/metrics"
	"github.com/civicreport/civicreport-api/internal/middleware"
	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/repository"
	"github.com/civicreport/civicreport-api/internal/router"
	"github.com/civicreport/civicreport-api/internal/service"
	"github.com/civicreport/civicreport-api/pkg/bcrypt"
	"github.com/civicreport/civicreport-api/pkg/database"
	"github.com/civicreport/civicreport-api/pkg/denylist"
	jwtPkg "github.com/civicreport/civicreport-api/pkg/jwt"
	"github.com/civicreport/civicreport-api/pkg/qrcode"
	"github.com/civicreport/civicreport-api/pkg/storage"
	"github.com/civicreport/civicreport-api/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const Password = "s3cure-pass"

// NewDB opens a migrated in-memory sqlite database that lives for the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	bcrypt.Cost = 4

	db, err := database.NewDatabase(config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// PNG returns a small valid PNG image.
func PNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 40), B: uint8(y * 40), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type UserOption func(*userOptions)

type userOptions struct {
	staff    bool
	inactive bool
	first    string
}

func Staff() UserOption    { return func(o *userOptions) { o.staff = true } }
func Inactive() UserOption { return func(o *userOptions) { o.inactive = true } }

func FirstName(name string) UserOption {
	return func(o *userOptions) { o.first = name }
}

// CreateUser inserts a user whose password is Password.
func CreateUser(t *testing.T, db *gorm.DB, email string, opts ...UserOption) *models.User {
	t.Helper()
	o := userOptions{first: strings.SplitN(email, "@", 2)[0]}
	for _, opt := range opts {
		opt(&o)
	}

	hash, err := bcrypt.HashPassword(Password)
	require.NoError(t, err)

	ctx := context.Background()
	repo := repository.NewUserRepository(db)
	user := &models.User{Email: email, Password: hash, FirstName: o.first, IsActive: true}
	require.NoError(t, repo.Create(ctx, user))

	if o.staff {
		require.NoError(t, repo.SetStaff(ctx, user.ID, true))
		user.IsStaff = true
	}
	if o.inactive {
		require.NoError(t, repo.SetActive(ctx, user.ID, false))
		user.IsActive = false
	}
	return user
}

// Email is a message captured by RecordingNotifier.
type Email struct {
	Template string
	To       string
	IssueID  uint
	Text     string
}

// RecordingNotifier keeps every email it was asked to send.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []Email
}

func (n *RecordingNotifier) record(e Email) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, e)
	return nil
}

func (n *RecordingNotifier) SendWelcomeEmail(email, firstName string) error {
	return n.record(Email{Template: "welcome", To: email})
}

func (n *RecordingNotifier) SendIssueResolvedEmail(email, firstName string, issueID uint, issueTitle string) error {
	return n.record(Email{Template: "issue_resolved", To: email, IssueID: issueID})
}

func (n *RecordingNotifier) SendNewCommentEmail(email, firstName, commenterName string, issueID uint, issueTitle, text string) error {
	return n.record(Email{Template: "new_comment", To: email, IssueID: issueID, Text: text})
}

func (n *RecordingNotifier) Sent() []Email {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Email(nil), n.sent...)
}

// App is a fully wired API backed by sqlite, local storage and an in-memory denylist.
type App struct {
	Fiber      *fiber.App
	DB         *gorm.DB
	Config     *config.Config
	Tokens     *jwtPkg.Manager
	Denylist   *denylist.Memory
	Storage    *storage.LocalStorage
	Metrics    *metrics.Metrics
	Notifier   *RecordingNotifier
	Dispatcher *service.Dispatcher
}

func NewConfig(mediaRoot string) *config.Config {
	return &config.Config{
		Env:         "test",
		Port:        "0",
		FrontendURL: "http://localhost:5173",
		CORSOrigins: "http://localhost:5173",
		Database:    config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"},
		JWT: config.JWTConfig{
			Secret:               "test-secret",
			Issuer:               "civicreport",
			AccessTokenLifetime:  15 * time.Minute,
			RefreshTokenLifetime: 24 * time.Hour,
			RotateRefreshTokens:  true,
		},
		Cookie: config.CookieConfig{
			AccessName:  "access_token",
			RefreshName: "refresh_token",
			Path:        "/",
			HTTPOnly:    true,
			SameSite:    "Lax",
		},
		Storage: config.StorageConfig{
			Backend:   "local",
			MediaRoot: mediaRoot,
			MediaURL:  "http://localhost:8080/media",
		},
	}
}

func NewApp(t *testing.T) *App {
	t.Helper()

	cfg := NewConfig(t.TempDir())
	log := zap.NewNop()
	db := NewDB(t)

	store, err := storage.NewLocalStorage(cfg.Storage.MediaRoot, cfg.Storage.MediaURL)
	require.NoError(t, err)

	m := metrics.New()
	notifier := &RecordingNotifier{}
	dispatcher := service.NewDispatcher(notifier, m, log)
	validator := utils.NewValidator()
	tokens := jwtPkg.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenLifetime, cfg.JWT.RefreshTokenLifetime)
	dl := denylist.NewMemory()

	users := repository.NewUserRepository(db)
	issues := repository.NewIssueRepository(db)
	comments := repository.NewCommentRepository(db)
	likes := repository.NewLikeRepository(db)

	authService := service.NewAuthService(users, tokens, dl, store, dispatcher, validator, cfg.JWT.RotateRefreshTokens, log)
	userService := service.NewUserService(users, store, validator, log)
	issueService := service.NewIssueService(issues, store, qrcode.NewQRService(cfg.FrontendURL), dispatcher, validator, m, log)
	commentService := service.NewCommentService(comments, issues, dispatcher, m, log)
	likeService := service.NewLikeService(likes, issues, m)

	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService, userService, handler.NewCookieJar(cfg.Cookie, tokens.AccessTTL(), tokens.RefreshTTL())),
		User:    handler.NewUserHandler(userService),
		Issue:   handler.NewIssueHandler(issueService),
		Comment: handler.NewCommentHandler(commentService),
		Like:    handler.NewLikeHandler(likeService),
		Health:  handler.NewHealthHandler(db, log),
	}
	authenticator := middleware.NewAuthenticator(authService, cfg.Cookie.AccessName, log)

	return &App{
		Fiber:      router.New(cfg, handlers, authenticator, m, log),
		DB:         db,
		Config:     cfg,
		Tokens:     tokens,
		Denylist:   dl,
		Storage:    store,
		Metrics:    m,
		Notifier:   notifier,
		Dispatcher: dispatcher,
	}
}

// Token returns a fresh access token for user.
func (a *App) Token(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := a.Tokens.Generate(user.ID, jwtPkg.AccessToken)
	require.NoError(t, err)
	return token
}

// Envelope is the decoded shape of every JSON response.
type Envelope struct {
	Success  bool            `json:"success"`
	Response json.RawMessage `json:"response"`
	Error    *struct {
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// Decode unmarshals the response payload into v.
func (e Envelope) Decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Response, v))
}

// Details unmarshals error.details into v.
func (e Envelope) Details(t *testing.T, v interface{}) {
	t.Helper()
	require.NotNil(t, e.Error)
	require.NoError(t, json.Unmarshal(e.Error.Details, v))
}

// Do runs req through the app and decodes the envelope when the body is JSON.
func (a *App) Do(t *testing.T, req *http.Request) (*http.Response, Envelope) {
	t.Helper()
	resp, err := a.Fiber.Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var env Envelope
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) && len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &env), string(body))
	}
	return resp, env
}

// JSON builds a request with a JSON body; token may be empty.
func JSON(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

// Form builds an application/x-www-form-urlencoded request.
func Form(method, path string, values url.Values, token string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

// File is one multipart upload.
type File struct {
	Field    string
	Name     string
	Contents []byte
}

// Multipart builds a multipart/form-data request.
func Multipart(t *testing.T, method, path string, fields map[string]string, files []File, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		require.NoError(t, err)
		_, err = part.Write(f.Contents)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

// CreateIssue posts an issue with n PNG images as user and returns its id.
func (a *App) CreateIssue(t *testing.T, user *models.User, title string, fields map[string]string, n int) uint {
	t.Helper()
	form := map[string]string{"title": title, "description": "Reported via test"}
	for k, v := range fields {
		form[k] = v
	}
	files := make([]File, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, File{Field: "uploaded_images", Name: fmt.Sprintf("photo%d.png", i), Contents: PNG(t)})
	}

	resp, env := a.Do(t, Multipart(t, http.MethodPost, "/issues/create", form, files, a.Token(t, user)))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(env.Response))

	var issue models.IssueDetailResponse
	env.Decode(t, &issue)
	return issue.ID
}
