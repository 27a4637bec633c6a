package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/upcycle/internal/auth"
	"github.com/erazemk/upcycle/internal/chat"
	"github.com/erazemk/upcycle/internal/db"
	"github.com/erazemk/upcycle/internal/model"
	"github.com/erazemk/upcycle/internal/store"
	"github.com/erazemk/upcycle/internal/uploads"
)

const testSecret = "test-secret"

type fakeChat struct {
	reply   string
	err     error
	prompt  string
	message string
}

func (f *fakeChat) GenerateReply(_ context.Context, prompt, message string) (string, error) {
	f.prompt, f.message = prompt, message
	return f.reply, f.err
}

type testEnv struct {
	handler http.Handler
	db      *sql.DB
	uploads *uploads.Store
	chat    *fakeChat
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	up, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)
	fc := &fakeChat{reply: "Keep upcycling! ♻️"}

	h, err := NewRouter(database, testSecret, Options{Uploads: up, Chat: fc, ChatPrompt: "site context"})
	require.NoError(t, err)
	return &testEnv{handler: h, db: database, uploads: up, chat: fc}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// user registers an account directly in the store and returns a session cookie for it.
func (e *testEnv) user(t *testing.T, name, email string) *http.Cookie {
	t.Helper()
	hash, err := auth.HashPassword("password")
	require.NoError(t, err)
	u, err := store.CreateUser(context.Background(), e.db, name, email, hash)
	require.NoError(t, err)
	token, err := auth.GenerateToken(testSecret, u.ID, u.Email, u.Name)
	require.NoError(t, err)
	return &http.Cookie{Name: sessionCookie, Value: token}
}

func (e *testEnv) material(t *testing.T, owner, name, category string, qty float64) *model.Material {
	t.Helper()
	m, err := store.CreateMaterial(context.Background(), e.db, &model.Material{
		Name: name, Category: category, Quantity: qty, Unit: "kg",
		Condition: "Good", Location: "Maribor", RegisteredBy: owner,
	})
	require.NoError(t, err)
	return m
}

func postForm(target string, values url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func postJSON(target string, body any, cookie *http.Cookie) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func get(target string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(postForm("/register", url.Values{
		"name": {"Ana"}, "email": {"Ana@Example.com"}, "password": {"s3cret"}, "c_password": {"s3cret"},
	}, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = env.do(postForm("/", url.Values{"email": {"ana@example.com"}, "password": {"s3cret"}}, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			session = c
		}
	}
	require.NotNil(t, session, "login must set the session cookie")
	assert.True(t, session.HttpOnly)

	rec = env.do(get("/dashboard", session))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hello, Ana")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "Ana", "ana@example.com")

	for _, form := range []url.Values{
		{"email": {"ana@example.com"}, "password": {"wrong"}},
		{"email": {"nobody@example.com"}, "password": {"password"}},
		{"email": {""}, "password": {""}},
	} {
		rec := env.do(postForm("/", form, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid email or password")
		assert.Empty(t, rec.Result().Cookies())
	}
}

func TestRegisterErrors(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "Ana", "ana@example.com")
	long := strings.Repeat("x", 100)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"mismatch", url.Values{"name": {"Bob"}, "email": {"bob@example.com"}, "password": {"a"}, "c_password": {"b"}}, "Passwords do not match"},
		{"duplicate", url.Values{"name": {"Ana 2"}, "email": {"ANA@example.com"}, "password": {"a"}, "c_password": {"a"}}, "Email already registered"},
		{"no name", url.Values{"name": {" "}, "email": {"c@example.com"}, "password": {"a"}, "c_password": {"a"}}, "Name is required"},
		{"password too long", url.Values{"name": {"Dan"}, "email": {"d@example.com"}, "password": {long}, "c_password": {long}}, "Password must be at most 72 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(postForm("/register", tt.form, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	n, err := store.CountUsers(context.Background(), env.db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPrivatePagesRedirectToLogin(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/dashboard", "/material", "/requests"} {
		rec := env.do(get(path, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get("Location"), path)
	}

	rec := env.do(get("/dashboard", &http.Cookie{Name: sessionCookie, Value: "garbage"}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.user(t, "Ana", "ana@example.com")

	rec := env.do(get("/logout", cookie))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// The copied cookie no longer works.
	rec = env.do(get("/dashboard", cookie))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestDashboardShowsImpact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana := env.user(t, "Ana", "ana@example.com")
	env.user(t, "Bob", "bob@example.com")

	m := env.material(t, "ana@example.com", "Steel rods", model.CategoryMetal, 2)
	req, err := store.CreateRequest(ctx, env.db, m.ID, "bob@example.com", "")
	require.NoError(t, err)
	_, err = store.RespondToRequest(ctx, env.db, req.ID, "ana@example.com", model.RequestStatusAccepted, "")
	require.NoError(t, err)

	rec := env.do(get("/dashboard", ana))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "9.0 kg")
	assert.Contains(t, body, "#1")
	assert.Contains(t, body, "Top Eco-Warriors")
	assert.Contains(t, body, `"labels":`)
}

func TestSendRequest(t *testing.T) {
	env := newTestEnv(t)
	ana := env.user(t, "Ana", "ana@example.com")
	bob := env.user(t, "Bob", "bob@example.com")
	m := env.material(t, "ana@example.com", "Oak planks", model.CategoryWood, 5)

	t.Run("unknown material before session check", func(t *testing.T) {
		rec := env.do(postJSON("/send_request/999", nil, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := env.do(postJSON("/send_request/1", nil, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Please log in first", decodeBody(t, rec)["error"])
	})

	t.Run("own material", func(t *testing.T) {
		rec := env.do(postJSON("/send_request/1", nil, ana))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "You cannot request your own material", decodeBody(t, rec)["error"])
	})

	t.Run("success", func(t *testing.T) {
		rec := env.do(postJSON("/send_request/1", map[string]string{"contact_details": "041 123 456"}, bob))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Request sent successfully!", decodeBody(t, rec)["message"])

		incoming, err := store.ListIncomingRequests(context.Background(), env.db, "ana@example.com")
		require.NoError(t, err)
		require.Len(t, incoming, 1)
		assert.Equal(t, m.ID, incoming[0].MaterialID)
		assert.Equal(t, model.RequestStatusPending, incoming[0].Status)
		assert.Equal(t, "041 123 456", incoming[0].ContactDetails)
	})
}

func TestRespondRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana := env.user(t, "Ana", "ana@example.com")
	bob := env.user(t, "Bob", "bob@example.com")
	m := env.material(t, "ana@example.com", "Jars", model.CategoryGlass, 30)
	req, err := store.CreateRequest(ctx, env.db, m.ID, "bob@example.com", "")
	require.NoError(t, err)

	target := "/respond_request/" + strconv.FormatInt(req.ID, 10)

	rec := env.do(postForm(target, url.Values{"status": {"Accepted"}}, bob))
	assert.Equal(t, http.StatusForbidden, rec.Code, "only the owner may respond")

	rec = env.do(postForm(target, url.Values{"status": {"Maybe"}}, ana))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(postForm("/respond_request/999", url.Values{"status": {"Accepted"}}, ana))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(postForm(target, url.Values{"status": {"Accepted"}, "reason": {"Pick up Friday"}}, ana))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/requests", rec.Header().Get("Location"))

	got, err := store.GetMaterial(ctx, env.db, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MaterialStatusAccepted, got.Status)

	rec = env.do(get("/requests", bob))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pick up Friday")
}

func TestSearchPage(t *testing.T) {
	env := newTestEnv(t)
	env.material(t, "ana@example.com", "Oak planks", model.CategoryWood, 5)
	env.material(t, "ana@example.com", "PET bottles", model.CategoryPlastic, 40)

	rec := env.do(get("/search", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Oak planks", "no filter, no search")

	rec = env.do(get("/search?q=OAK", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Oak planks")
	assert.NotContains(t, rec.Body.String(), "PET bottles")

	rec = env.do(get("/search?category=Metal", nil))
	assert.Contains(t, rec.Body.String(), "Nothing matches your search")
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: 120, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartMaterial(t *testing.T, fields map[string]string, fileName string, file []byte, cookie *http.Cookie) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/material", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	return req
}

func validMaterialFields() map[string]string {
	return map[string]string{
		"material_name": "Copper pipe",
		"category":      model.CategoryMetal,
		"quantity":      "12.5",
		"unit":          "m",
		"condition":     "Used",
		"location":      "Celje",
		"latitude":      "46.23",
		"longitude":     "15.26",
	}
}

func TestMaterialSubmitWithPhoto(t *testing.T) {
	env := newTestEnv(t)
	ana := env.user(t, "Ana", "ana@example.com")

	rec := env.do(multipartMaterial(t, validMaterialFields(), "my pipe.png", pngBytes(t), ana))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/search", rec.Header().Get("Location"))

	listed, err := store.ListMaterialsByOwner(context.Background(), env.db, "ana@example.com")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	m := listed[0]
	assert.Equal(t, 12.5, m.Quantity)
	assert.Equal(t, model.MaterialStatusAvailable, m.Status)
	require.NotNil(t, m.Latitude)
	assert.InDelta(t, 46.23, *m.Latitude, 1e-9)
	assert.Equal(t, "my_pipe.png", m.ImageName)
	require.NotEmpty(t, m.ImageKey)

	rec = env.do(get("/uploads/"+m.ImageKey, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
}

func TestMaterialSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	ana := env.user(t, "Ana", "ana@example.com")

	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"quantity not a number", "quantity", "lots", "Quantity must be a positive number"},
		{"quantity zero", "quantity", "0", "Quantity must be a positive number"},
		{"quantity infinite", "quantity", "Inf", "Quantity must be a positive number"},
		{"quantity huge", "quantity", "1e308", "Quantity must be a positive number"},
		{"unknown category", "category", "Stone", "Choose a valid category"},
		{"bad latitude", "latitude", "north", "Latitude must be within"},
		{"missing name", "material_name", "", "Material name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validMaterialFields()
			fields[tt.field] = tt.value
			rec := env.do(multipartMaterial(t, fields, "", nil, ana))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	t.Run("not an image", func(t *testing.T) {
		rec := env.do(multipartMaterial(t, validMaterialFields(), "notes.txt", []byte("hello, not a photo"), ana))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "JPEG or PNG")
	})

	n, err := store.CountMaterials(context.Background(), env.db)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUploadGetRejectsUnknownKeys(t *testing.T) {
	env := newTestEnv(t)

	for _, key := range []string{"upcycle.sqlite3", "not-a-key.jpg", "3b241101-e2bb-4255-8caf-4136c566a962.jpg"} {
		rec := env.do(get("/uploads/"+key, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, key)
	}
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(postJSON("/chat", map[string]string{"message": "How do I climb the leaderboard?"}, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Keep upcycling! ♻️", decodeBody(t, rec)["reply"])
	assert.Equal(t, "site context", env.chat.prompt)
	assert.Equal(t, "How do I climb the leaderboard?", env.chat.message)

	env.chat.err = &chat.ServiceError{StatusCode: http.StatusTooManyRequests, Err: errors.New("quota")}
	rec = env.do(postJSON("/chat", map[string]string{"message": "hi"}, nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, chat.FallbackReply, decodeBody(t, rec)["reply"])

	rec = env.do(postJSON("/chat", map[string]string{"message": "  "}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
