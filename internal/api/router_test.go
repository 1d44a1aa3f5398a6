package api

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"codequest/internal/app/catalog"
	"codequest/internal/app/flavor"
	"codequest/internal/app/service"
	"codequest/internal/common/security"
	"codequest/internal/domain/repository/memory"
	"codequest/internal/platform/cache"
	"codequest/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.Load()
	security.InitJWT()
	os.Exit(m.Run())
}

func newTestRouter() http.Handler {
	store := memory.NewStore()

	problems := []catalog.Problem{
		{ID: "p1", Name: "Array Warmup", Source: "leetcode", InternalRating: 30, Tags: []string{"arrays"}},
		{ID: "p2", Name: "Graph Walk", Source: "codeforces", InternalRating: 33, Tags: []string{"graphs"}},
		{ID: "p3", Name: "DP Ladder", Source: "leetcode", InternalRating: 36, Tags: []string{"dp"}},
		{ID: "p4", Name: "Greedy Picks", Source: "codeforces", InternalRating: 40, Tags: []string{"greedy"}},
	}

	authService := service.NewAuthService(store.UserRepo())
	contestService := service.NewContestService(
		store.UserRepo(),
		store.ContestRepo(),
		store.StatsRepo(),
		store,
		catalog.NewSelector(catalog.New(problems), rand.New(rand.NewSource(1))),
		flavor.NewGenerator(nil, rand.New(rand.NewSource(1))),
		cache.NewLocalLocker(),
		4,
	)
	return NewRouter(authService, contestService)
}

func postJSON(t *testing.T, router http.Handler, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, router http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func signUp(t *testing.T, router http.Handler, username string) []*http.Cookie {
	t.Helper()
	rec := postJSON(t, router, "/api/auth/createUser", map[string]string{
		"username": username,
		"password": "hunter2",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestRouter(), "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSignUpSetsSessionCookie(t *testing.T) {
	router := newTestRouter()
	rec := postJSON(t, router, "/api/auth/createUser", map[string]string{
		"username": "alice",
		"password": "hunter2",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, security.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEmpty(t, cookies[0].Value)

	var user map[string]any
	decode(t, rec, &user)
	assert.Equal(t, "alice", user["username"])
	// The password hash must not appear in the response.
	assert.NotContains(t, rec.Body.String(), "hashed")
}

func TestDuplicateSignUpIsRejected(t *testing.T) {
	router := newTestRouter()
	signUp(t, router, "alice")

	rec := postJSON(t, router, "/api/auth/createUser", map[string]string{
		"username": "alice",
		"password": "different",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginReturnsBearerToken(t *testing.T) {
	router := newTestRouter()
	signUp(t, router, "alice")

	rec := postJSON(t, router, "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "hunter2",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"accessToken"`
		TokenType   string `json:"tokenType"`
	}
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter()
	signUp(t, router, "alice")

	rec := postJSON(t, router, "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestContestRoutesRequireSession(t *testing.T) {
	router := newTestRouter()

	rec := get(t, router, "/api/contests/generate", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not authenticated")
}

func TestTamperedTokenClearsCookie(t *testing.T) {
	router := newTestRouter()

	rec := get(t, router, "/api/contests/profile", []*http.Cookie{{
		Name:  security.SessionCookieName,
		Value: "not-a-jwt",
	}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired token")

	// The stale cookie is expired so the client stops resending it.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, security.SessionCookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestBearerHeaderIsAcceptedWithoutCookie(t *testing.T) {
	router := newTestRouter()
	signUp(t, router, "alice")

	login := postJSON(t, router, "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "hunter2",
	}, nil)
	require.Equal(t, http.StatusOK, login.Code)

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, login, &resp)

	req := httptest.NewRequest(http.MethodGet, "/api/contests/profile", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContestLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter()
	cookies := signUp(t, router, "alice")

	// Generate
	rec := get(t, router, "/api/contests/generate", cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var detail struct {
		ContestID string `json:"contestId"`
		Status    string `json:"status"`
		Questions []struct {
			ID string `json:"id"`
		} `json:"questions"`
	}
	decode(t, rec, &detail)
	assert.Equal(t, "active", detail.Status)
	require.Len(t, detail.Questions, 4)

	// A second generate conflicts.
	rec = get(t, router, "/api/contests/generate", cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Solve every question.
	for _, q := range detail.Questions {
		rec = postJSON(t, router, "/api/contests/mark-solved", map[string]string{
			"questionId": q.ID,
		}, cookies)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	// Marking one again is rejected.
	rec = postJSON(t, router, "/api/contests/mark-solved", map[string]string{
		"questionId": detail.Questions[0].ID,
	}, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Complete
	rec = postJSON(t, router, "/api/contests/complete", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var completed struct {
		RatingBefore int `json:"ratingBefore"`
		RatingAfter  int `json:"ratingAfter"`
		RatingChange int `json:"ratingChange"`
	}
	decode(t, rec, &completed)
	assert.Equal(t, 30, completed.RatingBefore)
	assert.Equal(t, 40, completed.RatingAfter)
	assert.Equal(t, 10, completed.RatingChange)

	// No active contest afterwards.
	rec = get(t, router, "/api/contests/active", cookies)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// History shows one successful contest.
	rec = get(t, router, "/api/contests/history", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Total              int `json:"total"`
		SuccessfulContests int `json:"successfulContests"`
	}
	decode(t, rec, &history)
	assert.Equal(t, 1, history.Total)
	assert.Equal(t, 1, history.SuccessfulContests)

	// Profile reflects the rating gain.
	rec = get(t, router, "/api/contests/profile", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		Rating int    `json:"rating"`
		Level  int    `json:"level"`
		Title  string `json:"title"`
	}
	decode(t, rec, &profile)
	assert.Equal(t, 40, profile.Rating)
	assert.Equal(t, 5, profile.Level)
	assert.Equal(t, "Code Apprentice", profile.Title)
}

func TestAbandonOverHTTP(t *testing.T) {
	router := newTestRouter()
	cookies := signUp(t, router, "bob")

	rec := get(t, router, "/api/contests/generate", cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, router, "/api/contests/abandon", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Contest abandoned")

	// Generating again works right away.
	rec = get(t, router, "/api/contests/generate", cookies)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	router := newTestRouter()
	signUp(t, router, "alice")

	rec := postJSON(t, router, "/api/auth/logout", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, security.SessionCookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestAuthPageIsServed(t *testing.T) {
	rec := get(t, newTestRouter(), "/auth", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "<html"))
}
