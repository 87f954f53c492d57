package handler_test

import (
	"net/http"
	"testing"

	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/testutil"
	"github.com/civicreport/civicreport-api/pkg/bcrypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMyProfile(t *testing.T) {
	app := testutil.NewApp(t)
	user := testutil.CreateUser(t, app.DB, "ana@example.com", testutil.FirstName("Ana"))

	for _, path := range []string{"/auth/me", "/profile/me"} {
		resp, env := app.Do(t, testutil.JSON(t, http.MethodGet, path, nil, app.Token(t, user)))
		require.Equal(t, http.StatusOK, resp.StatusCode, path)

		var me models.UserResponse
		env.Decode(t, &me)
		assert.Equal(t, user.ID, me.ID)
		assert.Equal(t, "Ana", me.FirstName)
		assert.Nil(t, me.PhoneNumber)
	}

	resp, _ := app.Do(t, testutil.JSON(t, http.MethodGet, "/profile/me", nil, ""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateMe(t *testing.T) {
	app := testutil.NewApp(t)
	user := testutil.CreateUser(t, app.DB, "ana@example.com")
	testutil.CreateUser(t, app.DB, "taken@example.com")
	token := app.Token(t, user)

	resp, env := app.Do(t, testutil.JSON(t, http.MethodPatch, "/auth/me",
		map[string]string{"phone_number": "+15551234"}, token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me models.UserResponse
	env.Decode(t, &me)
	require.NotNil(t, me.PhoneNumber)
	assert.Equal(t, "+15551234", *me.PhoneNumber)

	resp, env = app.Do(t, testutil.JSON(t, http.MethodPatch, "/auth/me",
		map[string]string{"email": "taken@example.com"}, token))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var details map[string][]string
	env.Details(t, &details)
	assert.Equal(t, []string{"user with this email already exists."}, details["email"])

	resp, env = app.Do(t, testutil.JSON(t, http.MethodPut, "/auth/me",
		map[string]string{"last_name": "Silva"}, token))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	details = nil
	env.Details(t, &details)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "first_name")

	resp, env = app.Do(t, testutil.JSON(t, http.MethodPut, "/auth/me",
		map[string]string{"email": "ana.silva@example.com", "first_name": "Ana", "last_name": "Silva"}, token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env.Decode(t, &me)
	assert.Equal(t, "ana.silva@example.com", me.Email)
	require.NotNil(t, me.LastName)
	assert.Equal(t, "Silva", *me.LastName)
}

func TestUpdateProfile_EmailIsReadOnly(t *testing.T) {
	app := testutil.NewApp(t)
	user := testutil.CreateUser(t, app.DB, "ana@example.com")

	resp, env := app.Do(t, testutil.JSON(t, http.MethodPatch, "/profile/update",
		map[string]string{"email": "new@example.com", "first_name": "Ana", "last_name": "Silva"}, app.Token(t, user)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me models.UserResponse
	env.Decode(t, &me)
	assert.Equal(t, "ana@example.com", me.Email)
	assert.Equal(t, "Ana Silva", me.FullName)
}

func TestChangePassword(t *testing.T) {
	app := testutil.NewApp(t)
	user := testutil.CreateUser(t, app.DB, "ana@example.com")
	token := app.Token(t, user)

	resp, env := app.Do(t, testutil.JSON(t, http.MethodPatch, "/profile/update/password",
		map[string]string{"current_password": "nope", "new_password": "another-pass"}, token))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var details map[string][]string
	env.Details(t, &details)
	assert.Equal(t, []string{"Current password is incorrect."}, details["current_password"])

	resp, env = app.Do(t, testutil.JSON(t, http.MethodPatch, "/profile/update/password",
		map[string]string{"current_password": testutil.Password, "new_password": "short"}, token))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	details = nil
	env.Details(t, &details)
	assert.Equal(t, []string{"This password is too short. It must contain at least 8 characters."}, details["new_password"])

	resp, env = app.Do(t, testutil.JSON(t, http.MethodPatch, "/profile/update/password",
		map[string]string{"current_password": testutil.Password, "new_password": "another-pass"}, token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body models.Detail
	env.Decode(t, &body)
	assert.Equal(t, "Password updated successfully.", body.Detail)

	var stored models.User
	require.NoError(t, app.DB.First(&stored, user.ID).Error)
	assert.NoError(t, bcrypt.ComparePassword(stored.Password, "another-pass"))
}

func TestUpdateFirstName(t *testing.T) {
	app := testutil.NewApp(t)
	user := testutil.CreateUser(t, app.DB, "ana@example.com")
	token := app.Token(t, user)

	resp, env := app.Do(t, testutil.JSON(t, http.MethodPatch, "/profile/update/first_name",
		map[string]string{"first_name": "Ana_Maria"}, token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	env.Decode(t, &body)
	assert.Equal(t, "Ana_Maria", body["first_name"])

	resp, _ = app.Do(t, testutil.JSON(t, http.MethodPatch, "/profile/update/first_name",
		map[string]string{"first_name": "Ana Maria"}, token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateProfilePic(t *testing.T) {
	app := testutil.NewApp(t)
	user := testutil.CreateUser(t, app.DB, "ana@example.com")
	token := app.Token(t, user)

	req := testutil.Multipart(t, http.MethodPatch, "/profile/update/profile_pic", nil,
		[]testutil.File{{Field: "profile_pic", Name: "me.png", Contents: testutil.PNG(t)}}, token)
	resp, env := app.Do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body models.Detail
	env.Decode(t, &body)
	assert.Equal(t, "Profile picture updated successfully.", body.Detail)

	resp, env = app.Do(t, testutil.JSON(t, http.MethodGet, "/profile/me", nil, token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me models.UserResponse
	env.Decode(t, &me)
	require.NotNil(t, me.ProfilePic)
	assert.Equal(t, app.Config.Storage.MediaURL+"/profile_pics/user_"+itoa(user.ID)+"_profile.png", *me.ProfilePic)

	req = testutil.Multipart(t, http.MethodPost, "/auth/me/update/profile_pic", nil,
		[]testutil.File{{Field: "profile_pic", Name: "me.txt", Contents: []byte("plain text")}}, token)
	resp, env = app.Do(t, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var details map[string][]string
	env.Details(t, &details)
	assert.Equal(t, []string{"Only image files are allowed."}, details["profile_pic"])

	resp, env = app.Do(t, testutil.Multipart(t, http.MethodPatch, "/profile/update/profile_pic", nil, nil, token))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	details = nil
	env.Details(t, &details)
	assert.Equal(t, []string{"No file was submitted."}, details["profile_pic"])
}
