package server

import (
	"bytes"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"health-monitor/auth"
	"health-monitor/confs"
	"health-monitor/db"
	"health-monitor/services"
	"health-monitor/ws"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := confs.Default()
	cfg.Security.SecretKey = "test-secret-key-0123456789"
	cfg.Security.LoginRatePerMin = 0

	s, err := NewServer(cfg, db.OpenTestDatabase(t), services.NewRecommender(nil))
	require.NoError(t, err)
	return s.Engine()
}

func postForm(r http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func registerAndLogin(t *testing.T, r http.Handler, username string) *http.Cookie {
	t.Helper()
	creds := url.Values{"username": {username}, "password": {"secret"}}
	w := postForm(r, "/register", creds)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))

	w = postForm(r, "/login", creds)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/dashboard", w.Header().Get("Location"))
	return sessionCookie(t, w)
}

func reading(level string) url.Values {
	return url.Values{
		"pulse":          {"72"},
		"blood_pressure": {"120/80"},
		"weight":         {"70.5"},
		"activity_level": {level},
	}
}

func TestSession_PlaceholderSecretCannotForgeTokens(t *testing.T) {
	cfg, err := confs.Load("")
	require.NoError(t, err)
	s, err := NewServer(cfg, db.OpenTestDatabase(t), services.NewRecommender(nil))
	require.NoError(t, err)
	r := s.Engine()

	registerAndLogin(t, r, "victim")
	forged, err := auth.NewIssuer(confs.DefaultSecretKey, time.Hour).Issue(1, "victim")
	require.NoError(t, err)

	w := get(r, "/dashboard", &http.Cookie{Name: "session", Value: forged})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestServer(t)

	w := get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK"}`, w.Body.String())

	w = get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "health_http_requests_total")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	r := newTestServer(t)
	creds := url.Values{"username": {"alice"}, "password": {"secret"}}

	assert.Equal(t, http.StatusFound, postForm(r, "/register", creds).Code)

	w := postForm(r, "/register", creds)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Username already exists")
}

func TestRegister_OverlongPassword(t *testing.T) {
	r := newTestServer(t)

	w := postForm(r, "/register", url.Values{"username": {"alice"}, "password": {strings.Repeat("p", 80)}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Password must be at most 72 bytes")

	w = postJSON(r, "/api/v1/auth/register", `{"username":"bob","password":"`+strings.Repeat("p", 80)+`"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	r := newTestServer(t)
	registerAndLogin(t, r, "alice")

	w := postForm(r, "/login", url.Values{"username": {"alice"}, "password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password")

	w = postForm(r, "/login", url.Values{"username": {"ghost"}, "password": {"secret"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedPages_RedirectToLogin(t *testing.T) {
	r := newTestServer(t)
	for _, path := range []string{"/dashboard", "/add_data", "/health_data_plot", "/logout"} {
		w := get(r, path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}

	w := postForm(r, "/add_data", reading("Low"))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestAddData_StoresForLoggedInUser(t *testing.T) {
	r := newTestServer(t)
	alice := registerAndLogin(t, r, "alice")
	bob := registerAndLogin(t, r, "bob")

	w := postForm(r, "/add_data", reading("High"), alice)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	w = get(r, "/dashboard", alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "120/80")
	assert.Contains(t, w.Body.String(), services.PlaceholderRecommendation)

	w = get(r, "/dashboard", bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "120/80")
	assert.Contains(t, w.Body.String(), "No recommendations yet.")
}

func TestAddData_InvalidInput(t *testing.T) {
	r := newTestServer(t)
	alice := registerAndLogin(t, r, "alice")

	bad := reading("Low")
	bad.Set("pulse", "fast")
	assert.Equal(t, http.StatusBadRequest, postForm(r, "/add_data", bad, alice).Code)

	bad = reading("Low")
	bad.Set("blood_pressure", "high")
	assert.Equal(t, http.StatusBadRequest, postForm(r, "/add_data", bad, alice).Code)

	for _, v := range []string{"NaN", "Inf", "+Inf"} {
		bad = reading("Low")
		bad.Set("weight", v)
		assert.Equal(t, http.StatusBadRequest, postForm(r, "/add_data", bad, alice).Code, v)

		bad = reading("Low")
		bad.Set("blood_pressure", v+"/80")
		assert.Equal(t, http.StatusBadRequest, postForm(r, "/add_data", bad, alice).Code, v)
	}

	d := get(r, "/dashboard", alice)
	assert.Contains(t, d.Body.String(), "No recommendations yet.")
}

func TestHealthDataPlot(t *testing.T) {
	r := newTestServer(t)
	alice := registerAndLogin(t, r, "alice")

	w := get(r, "/health_data_plot", alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No activity data available for plotting")

	require.Equal(t, http.StatusFound, postForm(r, "/add_data", reading("Low"), alice).Code)
	require.Equal(t, http.StatusFound, postForm(r, "/add_data", reading("High"), alice).Code)

	w = get(r, "/health_data_plot", alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	_, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	assert.NoError(t, err)
}

func TestLogout_ClearsSession(t *testing.T) {
	r := newTestServer(t)
	alice := registerAndLogin(t, r, "alice")

	w := get(r, "/logout", alice)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func postJSON(r http.Handler, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func apiToken(t *testing.T, r http.Handler, username string) string {
	t.Helper()
	creds := `{"username":"` + username + `","password":"secret"}`
	require.Equal(t, http.StatusCreated, postJSON(r, "/api/v1/auth/register", creds, "").Code)

	w := postJSON(r, "/api/v1/auth/login", creds, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestAPI_ReadingsFlow(t *testing.T) {
	r := newTestServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/readings", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := apiToken(t, r, "alice")
	assert.Equal(t, http.StatusConflict, postJSON(r, "/api/v1/auth/register", `{"username":"alice","password":"x"}`, "").Code)
	assert.Equal(t, http.StatusUnauthorized, postJSON(r, "/api/v1/auth/login", `{"username":"alice","password":"x"}`, "").Code)

	w = postJSON(r, "/api/v1/readings", `{"pulse":80,"blood_pressure":"130","weight":82,"activity_level":"Moderate"}`, token)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(r, "/api/v1/readings", `{"pulse":0,"blood_pressure":"130","weight":82,"activity_level":"Moderate"}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/readings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count          int    `json:"count"`
		Recommendation string `json:"recommendation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, services.PlaceholderRecommendation, list.Recommendation)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/readings/distribution", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"levels":[{"level":"Low","count":0},{"level":"Moderate","count":1},{"level":"High","count":0}],"total":1}}`, w.Body.String())
}

func TestWebSocket_ReadingAddedEvent(t *testing.T) {
	r := newTestServer(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	token := apiToken(t, r, "alice")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	foreign := http.Header{"Authorization": {"Bearer " + token}, "Origin": {"https://evil.example.net"}}
	_, resp, err = websocket.DefaultDialer.Dial(wsURL, foreign)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// registration happens right after the upgrade; give it a moment
	time.Sleep(50 * time.Millisecond)

	w := postJSON(r, "/api/v1/readings", `{"pulse":66,"blood_pressure":"118/76","weight":64,"activity_level":"High"}`, token)
	require.Equal(t, http.StatusCreated, w.Code)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev ws.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, ws.EventReadingAdded, ev.Type)
	assert.Equal(t, 66, ev.Reading.Pulse)
	assert.Equal(t, "High", ev.Reading.ActivityLevel)
}
