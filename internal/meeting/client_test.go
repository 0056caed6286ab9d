package meeting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(Config{
		BaseURL:      srv.URL,
		APIKey:       "key-1",
		APISecret:    "secret-1",
		PasswordSeed: "seed",
	})
	return srv, client
}

func parseBearer(t *testing.T, r *http.Request) *jwt.Token {
	t.Helper()
	auth := r.Header.Get("Authorization")
	require.True(t, strings.HasPrefix(auth, "Bearer "), "authorization header %q", auth)

	token, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(*jwt.Token) (any, error) {
		return []byte("secret-1"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	return token
}

func TestClient_CreateMeeting(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		token := parseBearer(t, r)
		claims := token.Claims.(jwt.MapClaims)
		assert.Equal(t, "key-1", claims["iss"])

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(Details{ID: 9001, Password: "pw", JoinURL: "https://meet.example/9001"})
	})

	start := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	details, err := client.CreateMeeting(context.Background(), "acct-1", start, "walking tour", "ab-cdef12")
	require.NoError(t, err)

	assert.Equal(t, "/users/acct-1/meetings", gotPath)
	assert.EqualValues(t, 9001, details.ID)
	assert.Equal(t, "walking tour", gotBody["topic"])
	assert.Equal(t, "2026-09-01T12:00:00Z", gotBody["start_time"])
	assert.Equal(t, "ab-cdef12", gotBody["password"])
	// Scheduled-meeting defaults ride along.
	assert.EqualValues(t, 2, gotBody["type"])
}

func TestClient_DeleteMeeting(t *testing.T) {
	var gotMethod, gotPath string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		parseBearer(t, r)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteMeeting(context.Background(), 9001))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/meetings/9001", gotPath)
}

func TestClient_ErrorStatusSurfaces(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":3001,"message":"meeting not found"}`, http.StatusNotFound)
	})

	err := client.DeleteMeeting(context.Background(), 404404)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "meeting not found")
}

func TestClient_TokenReusedAcrossCalls(t *testing.T) {
	var tokens []string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := context.Background()
	require.NoError(t, client.DeleteMeeting(ctx, 1))
	require.NoError(t, client.DeleteMeeting(ctx, 2))

	require.Len(t, tokens, 2)
	assert.Equal(t, tokens[0], tokens[1], "token must be cached between calls")
}

func TestClient_TokenRenewedNearExpiry(t *testing.T) {
	client := NewClient(Config{APIKey: "key-1", APISecret: "secret-1"})

	now := time.Now()
	first, err := client.bearerToken(now)
	require.NoError(t, err)

	// Still fresh: same token.
	again, err := client.bearerToken(now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// Inside the renewal margin: a new token is minted.
	renewed, err := client.bearerToken(now.Add(tokenLifetime - time.Minute))
	require.NoError(t, err)
	assert.NotEqual(t, first, renewed)
}

func TestClient_Password(t *testing.T) {
	client := NewClient(Config{PasswordSeed: "seed"})
	guideID := uuid.New()

	pw := client.Password(guideID)
	assert.Len(t, pw, 9, "8 digest chars plus the dash")
	assert.Contains(t, pw, "-")

	// Deterministic per guide, distinct across guides.
	assert.Equal(t, pw, client.Password(guideID))
	assert.NotEqual(t, pw, client.Password(uuid.New()))
}
