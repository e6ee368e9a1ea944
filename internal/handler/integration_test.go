package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/taskdesk/internal/service"
)

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, r)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeInto[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestIntegration_RegisterLoginProfile(t *testing.T) {
	srv := newTestServer(t, newTestEnv(t))
	c := &client{t: t, base: srv.URL}

	resp := c.do(http.MethodPost, "/auth/register", map[string]any{
		"name": "Integration User", "email": "Integ@Example.com", "password": "password123",
		"role": "admin",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, decodeInto[map[string]string](t, resp)["token"])

	resp = c.do(http.MethodPost, "/auth/login", map[string]any{
		"email": "integ@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c.token = decodeInto[map[string]string](t, resp)["token"]

	for _, path := range []string{"/auth/profile", "/auth/me"} {
		resp = c.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)

		raw := decodeInto[map[string]any](t, resp)
		assert.Equal(t, "integ@example.com", raw["email"])
		assert.Equal(t, "user", raw["role"], "register must not honour a requested role")
		assert.NotContains(t, raw, "password")
		assert.NotContains(t, raw, "passwordHash")
	}
}

func TestIntegration_RegisterValidation(t *testing.T) {
	srv := newTestServer(t, newTestEnv(t))
	c := &client{t: t, base: srv.URL}

	resp := c.do(http.MethodPost, "/auth/register", map[string]any{"name": "X", "password": "abc"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp.Body)
	assert.False(t, body.Success)
	require.Len(t, body.Errors, 2)
	assert.Equal(t, "email", body.Errors[0].Field)
	assert.Equal(t, "password", body.Errors[1].Field)
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	env.register(t, "dup@example.com")
	c := &client{t: t, base: srv.URL}

	resp := c.do(http.MethodPost, "/auth/register", map[string]any{
		"name": "Again", "email": "DUP@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email already in use", decodeEnvelope(t, resp.Body).Message)
}

func TestIntegration_ConcurrentRegistration(t *testing.T) {
	srv := newTestServer(t, newTestEnv(t))
	c := &client{t: t, base: srv.URL}

	const n = 4
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, _ := json.Marshal(map[string]any{"name": "Racer", "email": "race@example.com", "password": "password123"})
			resp, err := http.Post(c.base+"/auth/register", "application/json", bytes.NewReader(b))
			if err != nil {
				return
			}
			resp.Body.Close()
			codes[i] = resp.StatusCode
		}()
	}
	wg.Wait()

	var created, rejected int
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
			rejected++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, rejected)
}

func TestIntegration_LoginFailuresAreIdentical(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	env.register(t, "known@example.com")
	c := &client{t: t, base: srv.URL}

	wrong := c.do(http.MethodPost, "/auth/login", map[string]any{"email": "known@example.com", "password": "wrong-password"})
	unknown := c.do(http.MethodPost, "/auth/login", map[string]any{"email": "nobody@example.com", "password": "password123"})

	require.Equal(t, http.StatusUnauthorized, wrong.StatusCode)
	require.Equal(t, http.StatusUnauthorized, unknown.StatusCode)

	a, err := io.ReadAll(wrong.Body)
	require.NoError(t, err)
	b, err := io.ReadAll(unknown.Body)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Contains(t, string(a), "Invalid email or password")
}

func TestIntegration_LoginRateLimited(t *testing.T) {
	env := newTestEnv(t)
	limiter := service.NewTokenBucket(0, 2)
	t.Cleanup(func() { limiter.Close() })
	env.services.Limiter = limiter
	srv := newTestServer(t, env)
	c := &client{t: t, base: srv.URL}

	creds := map[string]any{"email": "nobody@example.com", "password": "password123"}
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/auth/login", creds).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/auth/login", creds).StatusCode)

	resp := c.do(http.MethodPost, "/auth/login", creds)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, decodeEnvelope(t, resp.Body).Status)
}

func TestIntegration_AdminDashboard(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)

	anonymous := &client{t: t, base: srv.URL}
	assert.Equal(t, http.StatusUnauthorized, anonymous.do(http.MethodGet, "/admin/dashboard", nil).StatusCode)

	user := &client{t: t, base: srv.URL, token: env.register(t, "plain@example.com")}
	assert.Equal(t, http.StatusForbidden, user.do(http.MethodGet, "/admin/dashboard", nil).StatusCode)

	admin := &client{t: t, base: srv.URL, token: env.admin(t)}
	resp := admin.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Welcome to the admin dashboard, Admin", decodeInto[map[string]string](t, resp)["message"])
}

func TestIntegration_AdminUserCRUD(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	admin := &client{t: t, base: srv.URL, token: env.admin(t)}

	resp := admin.do(http.MethodPost, "/users", map[string]any{
		"name": "Managed", "email": "managed@example.com", "password": "password123", "role": "admin",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeInto[map[string]any](t, resp)
	id := created["id"].(string)
	assert.Equal(t, "admin", created["role"])

	resp = admin.do(http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeInto[[]map[string]any](t, resp), 2)

	resp = admin.do(http.MethodPut, "/users/"+id, map[string]any{"role": "user", "name": "Demoted"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeInto[map[string]any](t, resp)
	assert.Equal(t, "user", updated["role"])
	assert.Equal(t, "Demoted", updated["name"])

	resp = admin.do(http.MethodPut, "/users/"+id, map[string]any{"role": "root"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = admin.do(http.MethodGet, "/users/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = admin.do(http.MethodDelete, "/users/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = admin.do(http.MethodGet, "/users/"+id, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", decodeEnvelope(t, resp.Body).Message)

	user := &client{t: t, base: srv.URL, token: env.register(t, "nosy@example.com")}
	assert.Equal(t, http.StatusForbidden, user.do(http.MethodGet, "/users", nil).StatusCode)
}

func TestIntegration_AdminCannotChangeOwnRole(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	admin := &client{t: t, base: srv.URL, token: env.admin(t)}

	resp := admin.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id := decodeInto[map[string]any](t, resp)["id"].(string)

	resp = admin.do(http.MethodPut, "/users/"+id, map[string]any{"role": "user"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "You cannot change your own role", decodeEnvelope(t, resp.Body).Message)

	resp = admin.do(http.MethodPut, "/users/"+id, map[string]any{"role": "admin", "name": "Still Admin"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "admin", decodeInto[map[string]any](t, resp)["role"])

	assert.Equal(t, http.StatusOK, admin.do(http.MethodGet, "/admin/dashboard", nil).StatusCode)
}

func TestIntegration_UpdateProfileAndPassword(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	c := &client{t: t, base: srv.URL, token: env.register(t, "self@example.com")}

	resp := c.do(http.MethodPut, "/auth/profile", map[string]any{"name": "Renamed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed", decodeInto[map[string]any](t, resp)["name"])

	resp = c.do(http.MethodPut, "/auth/password", map[string]any{"currentPassword": "nope", "newPassword": "next-password"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Current password is incorrect", decodeEnvelope(t, resp.Body).Message)

	resp = c.do(http.MethodPut, "/auth/password", map[string]any{"currentPassword": "password123", "newPassword": "next-password"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	anon := &client{t: t, base: srv.URL}
	resp = anon.do(http.MethodPost, "/auth/login", map[string]any{"email": "self@example.com", "password": "next-password"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func uploadPicture(t *testing.T, base, token string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "avatar.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, base+"/upload/profile-picture", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestIntegration_ProfilePicture(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	token := env.register(t, "pic@example.com")
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

	assert.Equal(t, http.StatusUnauthorized, uploadPicture(t, srv.URL, "", png).StatusCode)

	resp := uploadPicture(t, srv.URL, token, []byte("plain text is not an image"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = uploadPicture(t, srv.URL, token, png)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeInto[map[string]any](t, resp)
	assert.Equal(t, true, body["success"])
	fileURL := body["fileUrl"].(string)
	assert.True(t, strings.HasPrefix(fileURL, "/files/profile-pictures/"))

	file, err := http.Get(srv.URL + fileURL)
	require.NoError(t, err)
	defer file.Body.Close()
	assert.Equal(t, http.StatusOK, file.StatusCode)
	assert.Equal(t, "image/png", file.Header.Get("Content-Type"))
	got, err := io.ReadAll(file.Body)
	require.NoError(t, err)
	assert.Equal(t, png, got)

	c := &client{t: t, base: srv.URL, token: token}
	profile := decodeInto[map[string]any](t, c.do(http.MethodGet, "/auth/profile", nil))
	assert.Equal(t, fileURL, profile["profilePic"])

	missing, err := http.Get(srv.URL + "/files/profile-pictures/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
