package handler_test

import (
	"net/http"
	"testing"

	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func login(t *testing.T, app *testutil.App, email string) (*http.Response, models.LoginResponse) {
	t.Helper()
	resp, env := app.Do(t, testutil.JSON(t, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": testutil.Password}, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out models.LoginResponse
	env.Decode(t, &out)
	return resp, out
}

func TestRegister(t *testing.T) {
	app := testutil.NewApp(t)

	resp, env := app.Do(t, testutil.JSON(t, http.MethodPost, "/auth/register", map[string]string{
		"email":      "Ana@Example.COM",
		"password":   "s3cure-pass",
		"first_name": "Ana",
	}, ""))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, env.Success)

	var user models.UserResponse
	env.Decode(t, &user)
	assert.Equal(t, "Ana@example.com", user.Email)
	assert.Equal(t, "Ana", user.FirstName)
	assert.Nil(t, user.LastName)
	assert.Nil(t, user.ProfilePic)

	app.Dispatcher.Wait()
	sent := app.Notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "welcome", sent[0].Template)
	assert.Equal(t, "Ana@example.com", sent[0].To)
}

func TestRegister_WithProfilePic(t *testing.T) {
	app := testutil.NewApp(t)

	req := testutil.Multipart(t, http.MethodPost, "/auth/register", map[string]string{
		"email":      "bo@example.com",
		"password":   "s3cure-pass",
		"first_name": "Bo",
	}, []testutil.File{{Field: "profile_pic", Name: "me.png", Contents: testutil.PNG(t)}}, "")
	resp, env := app.Do(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user models.UserResponse
	env.Decode(t, &user)
	require.NotNil(t, user.ProfilePic)
	assert.Contains(t, *user.ProfilePic, "profile_pics/user_")
}

func TestRegister_ValidationErrors(t *testing.T) {
	app := testutil.NewApp(t)
	testutil.CreateUser(t, app.DB, "taken@example.com")

	resp, env := app.Do(t, testutil.JSON(t, http.MethodPost, "/auth/register", map[string]string{
		"email":        "taken@example.com",
		"password":     "12345678",
		"first_name":   "Bad Name!",
		"phone_number": "555-1234",
	}, ""))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)

	var details map[string][]string
	env.Details(t, &details)
	assert.Equal(t, []string{"user with this email already exists."}, details["email"])
	assert.Equal(t, []string{"This password is entirely numeric."}, details["password"])
	assert.Equal(t, []string{"First name can only contain letters, numbers, underscores, and hyphens."}, details["first_name"])
	assert.Equal(t, []string{"Phone number can only contain digits and '+'"}, details["phone_number"])
}

func TestLogin(t *testing.T) {
	app := testutil.NewApp(t)
	user := testutil.CreateUser(t, app.DB, "ana@example.com")

	resp, out := login(t, app, "ana@example.com")
	assert.NotEmpty(t, out.Access)
	assert.NotEmpty(t, out.Refresh)
	assert.Equal(t, user.ID, out.User.ID)

	access := cookie(resp, "access_token")
	require.NotNil(t, access)
	assert.Equal(t, out.Access, access.Value)
	assert.True(t, access.HttpOnly)
	require.NotNil(t, cookie(resp, "refresh_token"))
}

func TestLogin_ErrorOrder(t *testing.T) {
	app := testutil.NewApp(t)
	testutil.CreateUser(t, app.DB, "ana@example.com")
	testutil.CreateUser(t, app.DB, "gone@example.com", testutil.Inactive())

	cases := []struct {
		name    string
		body    map[string]string
		field   string
		message string
	}{
		{"missing email", map[string]string{"password": "x"}, "email", "Email is required."},
		{"missing password", map[string]string{"email": "ana@example.com"}, "password", "Password is required."},
		{"unknown user", map[string]string{"email": "nobody@example.com", "password": "x"}, "email", "User not found."},
		{"inactive", map[string]string{"email": "gone@example.com", "password": testutil.Password}, "detail", "Account is inactive."},
		{"wrong password", map[string]string{"email": "ana@example.com", "password": "wrong-pass"}, "password", "Invalid credentials."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, env := app.Do(t, testutil.JSON(t, http.MethodPost, "/auth/login", tc.body, ""))
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var details map[string]string
			env.Details(t, &details)
			assert.Equal(t, tc.message, details[tc.field])
		})
	}
}

func TestLogin_AlreadyAuthenticated(t *testing.T) {
	app := testutil.NewApp(t)
	user := testutil.CreateUser(t, app.DB, "ana@example.com")

	resp, env := app.Do(t, testutil.JSON(t, http.MethodPost, "/auth/login",
		map[string]string{"email": "ana@example.com", "password": testutil.Password}, app.Token(t, user)))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User is already logged in. You need to logout first.", env.Error.Message)
}

func TestRefresh_RotatesAndRevokes(t *testing.T) {
	app := testutil.NewApp(t)
	testutil.CreateUser(t, app.DB, "ana@example.com")
	_, out := login(t, app, "ana@example.com")

	resp, env := app.Do(t, testutil.JSON(t, http.MethodPost, "/auth/token/refresh", map[string]string{"refresh": out.Refresh}, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var refreshed models.RefreshResponse
	env.Decode(t, &refreshed)
	assert.NotEmpty(t, refreshed.Access)
	assert.NotEmpty(t, refreshed.Refresh)
	assert.NotEqual(t, out.Refresh, refreshed.Refresh)
	require.NotNil(t, cookie(resp, "access_token"))

	resp, env = app.Do(t, testutil.JSON(t, http.MethodPost, "/auth/token/refresh", map[string]string{"refresh": out.Refresh}, ""))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token is invalid or expired", env.Error.Message)

	resp, _ = app.Do(t, testutil.JSON(t, http.MethodPost, "/auth/token/refresh", map[string]string{"refresh": refreshed.Refresh}, ""))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefresh_FromCookie(t *testing.T) {
	app := testutil.NewApp(t)
	testutil.CreateUser(t, app.DB, "ana@example.com")
	loginResp, _ := login(t, app, "ana@example.com")

	req := testutil.JSON(t, http.MethodPost, "/auth/token/refresh", nil, "")
	req.AddCookie(cookie(loginResp, "refresh_token"))
	resp, _ := app.Do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefresh_Missing(t *testing.T) {
	app := testutil.NewApp(t)

	resp, env := app.Do(t, testutil.JSON(t, http.MethodPost, "/auth/token/refresh", nil, ""))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Refresh token not found.", env.Error.Message)
}

func TestVerify(t *testing.T) {
	app := testutil.NewApp(t)
	testutil.CreateUser(t, app.DB, "ana@example.com")
	loginResp, out := login(t, app, "ana@example.com")

	resp, env := app.Do(t, testutil.JSON(t, http.MethodPost, "/auth/token/verify", map[string]string{"token": out.Access}, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	req := testutil.JSON(t, http.MethodPost, "/auth/token/verify", nil, "")
	req.AddCookie(cookie(loginResp, "access_token"))
	resp, _ = app.Do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.Do(t, testutil.JSON(t, http.MethodPost, "/auth/token/verify", map[string]string{"token": "garbage"}, ""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env = app.Do(t, testutil.JSON(t, http.MethodPost, "/auth/token/verify", nil, ""))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "No access token provided.", env.Error.Message)
}

func TestLogout(t *testing.T) {
	app := testutil.NewApp(t)
	testutil.CreateUser(t, app.DB, "ana@example.com")
	loginResp, out := login(t, app, "ana@example.com")

	req := testutil.JSON(t, http.MethodPost, "/auth/logout", nil, "")
	req.AddCookie(cookie(loginResp, "refresh_token"))
	resp, env := app.Do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.Detail
	env.Decode(t, &body)
	assert.Equal(t, "Successfully logged out.", body.Detail)

	cleared := cookie(resp, "refresh_token")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	resp, _ = app.Do(t, testutil.JSON(t, http.MethodPost, "/auth/token/refresh", map[string]string{"refresh": out.Refresh}, ""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// logging out without a token still succeeds
	resp, _ = app.Do(t, testutil.JSON(t, http.MethodPost, "/profile/logout", nil, ""))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequiredAuth_Errors(t *testing.T) {
	app := testutil.NewApp(t)
	inactive := testutil.CreateUser(t, app.DB, "gone@example.com", testutil.Inactive())

	resp, env := app.Do(t, testutil.JSON(t, http.MethodGet, "/auth/me", nil, "not-a-token"))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Given token not valid for any token type", env.Error.Message)

	resp, env = app.Do(t, testutil.JSON(t, http.MethodGet, "/auth/me", nil, app.Token(t, inactive)))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "User is inactive", env.Error.Message)

	ghost := &models.User{ID: 9999}
	resp, env = app.Do(t, testutil.JSON(t, http.MethodGet, "/auth/me", nil, app.Token(t, ghost)))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "User not found", env.Error.Message)
}
