package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-gallery/internal/repository/sqlite"
	"recipe-gallery/internal/service"
	"recipe-gallery/internal/storage"
)

type memoryStorage struct {
	objects map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}}
}

func (m *memoryStorage) PutObject(_ context.Context, body io.Reader, opts storage.PutOptions) error {
	if _, exists := m.objects[opts.Key]; exists {
		return storage.ErrKeyExists
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[opts.Key] = data
	return nil
}

func (m *memoryStorage) ListObjects(_ context.Context, _, prefix string) ([]storage.ObjectInfo, error) {
	var objects []storage.ObjectInfo
	for key, data := range m.objects {
		objects = append(objects, storage.ObjectInfo{Key: key, Size: int64(len(data))})
	}
	return objects, nil
}

func (m *memoryStorage) PublicURL(_, key string) string {
	return "https://cdn.example.com/" + key
}

func newTestRouter(t *testing.T) (*gin.Engine, *memoryStorage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "recipes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewRecipeRepository(db)
	require.NoError(t, repo.Init(context.Background()))

	store := newMemoryStorage()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	handler := NewHandler(
		service.NewRecipeService(repo),
		service.NewImageService(store, "recipe-bucket", "recipe-images"),
		service.NewAuthService(service.AuthConfig{
			AdminPassword: "letmein",
			JWTSecret:     "test-secret",
		}),
		store,
		"recipe-bucket",
		"recipe-images",
		logger,
	)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router, store
}

func doJSON(router *gin.Engine, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func loginCookie(t *testing.T, router *gin.Engine) *http.Cookie {
	t.Helper()
	rec := doJSON(router, http.MethodPost, "/api/auth/login", gin.H{"password": "letmein"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "admin-token" {
			return cookie
		}
	}
	t.Fatal("admin-token cookie not set")
	return nil
}

func completeDraft(title string) gin.H {
	return gin.H{
		"title":       title,
		"difficulty":  "easy",
		"categories":  []string{"breakfast"},
		"description": "Quick and simple.",
		"ingredients": []gin.H{{"name": "Egg", "quantity": "2"}},
		"steps":       []string{"Whisk the eggs.", "Cook gently."},
		"image_url":   "https://cdn.example.com/eggs.jpg",
	}
}

func TestLogin(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/auth/login", gin.H{"password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid password", decodeBody(t, rec)["error"])

	rec = doJSON(router, http.MethodPost, "/api/auth/login", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cookie := loginCookie(t, router)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
}

func TestAuthCheck(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(router, http.MethodGet, "/api/auth/check", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["authenticated"])

	cookie := loginCookie(t, router)
	rec = doJSON(router, http.MethodGet, "/api/auth/check", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["authenticated"])

	garbage := &http.Cookie{Name: "admin-token", Value: "not-a-token"}
	rec = doJSON(router, http.MethodGet, "/api/auth/check", nil, garbage)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["authenticated"])
}

func TestLogout_ClearsCookie(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/auth/logout", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cleared bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "admin-token" && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout must expire the admin-token cookie")
}

func TestMutationsRequireAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/recipes", completeDraft("Scrambled Eggs"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decodeBody(t, rec)["error"])

	garbage := &http.Cookie{Name: "admin-token", Value: "not-a-token"}
	rec = doJSON(router, http.MethodPost, "/api/recipes", completeDraft("Scrambled Eggs"), garbage)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", decodeBody(t, rec)["error"])

	rec = doJSON(router, http.MethodDelete, "/api/recipes/some-id", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateListGetUpdateDelete(t *testing.T) {
	router, _ := newTestRouter(t)
	cookie := loginCookie(t, router)

	// create
	rec := doJSON(router, http.MethodPost, "/api/recipes", completeDraft("Scrambled Eggs"), cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Scrambled Eggs", created["title"])
	assert.Nil(t, created["notes"])

	// immediately visible in the listing
	rec = doJSON(router, http.MethodGet, "/api/recipes", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listing := decodeBody(t, rec)
	assert.EqualValues(t, 1, listing["total"])
	assert.EqualValues(t, 1, listing["totalPages"])
	assert.EqualValues(t, 12, listing["limit"])

	// fetch by id
	rec = doJSON(router, http.MethodGet, "/api/recipes/"+id, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// partial update
	rec = doJSON(router, http.MethodPut, "/api/recipes/"+id, gin.H{"title": "Perfect Scrambled Eggs"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Perfect Scrambled Eggs", decodeBody(t, rec)["title"])

	// emptying update is rejected
	rec = doJSON(router, http.MethodPut, "/api/recipes/"+id, gin.H{"categories": []string{}}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// delete
	rec = doJSON(router, http.MethodDelete, "/api/recipes/"+id, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	rec = doJSON(router, http.MethodGet, "/api/recipes/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(router, http.MethodDelete, "/api/recipes/"+id, nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreate_ValidationErrors(t *testing.T) {
	router, _ := newTestRouter(t)
	cookie := loginCookie(t, router)

	draft := completeDraft("No Steps")
	draft["steps"] = []string{}

	rec := doJSON(router, http.MethodPost, "/api/recipes", draft, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "at least one step is required", decodeBody(t, rec)["error"])
}

func TestListFilters(t *testing.T) {
	router, _ := newTestRouter(t)
	cookie := loginCookie(t, router)

	pancakes := completeDraft("Pancakes")
	toast := completeDraft("Avocado Toast with Poached Egg")
	roast := completeDraft("Sunday Roast")
	roast["categories"] = []string{"dinner"}

	for _, draft := range []gin.H{pancakes, toast, roast} {
		rec := doJSON(router, http.MethodPost, "/api/recipes", draft, cookie)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(router, http.MethodGet, "/api/recipes?search=toast", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["total"])

	rec = doJSON(router, http.MethodGet, "/api/recipes?categories=breakfast,lunch", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decodeBody(t, rec)["total"], "dinner-only recipe must be excluded")
}

func TestUpload(t *testing.T) {
	router, store := newTestRouter(t)
	cookie := loginCookie(t, router)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "dinner.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	path, _ := body["path"].(string)
	require.NotEmpty(t, path)
	assert.Equal(t, "https://cdn.example.com/"+path, body["url"])
	assert.Equal(t, []byte("jpeg-bytes"), store.objects[path])

	// no file field at all
	req = httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file provided", decodeBody(t, rec)["error"])
}

func TestUploadsList(t *testing.T) {
	router, store := newTestRouter(t)
	cookie := loginCookie(t, router)

	store.objects["recipe-images/recipe-1-abcdefg.jpg"] = []byte("x")

	rec := doJSON(router, http.MethodGet, "/api/uploads", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var objects []StorageObjectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &objects))
	require.Len(t, objects, 1)
	assert.Equal(t, "recipe-images/recipe-1-abcdefg.jpg", objects[0].Key)

	rec = doJSON(router, http.MethodGet, "/api/uploads", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(router, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
