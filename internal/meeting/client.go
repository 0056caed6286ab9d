package meeting

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Details identifies a provisioned meeting room.
type Details struct {
	ID       int64  `json:"id"`
	Password string `json:"password"`
	JoinURL  string `json:"join_url,omitempty"`
}

// Provisioner is the meeting-room provisioning capability consumed by the
// event lifecycle. Calls are best-effort: a failure must not abort the
// triggering operation, only leave the event without meeting details.
type Provisioner interface {
	CreateMeeting(ctx context.Context, meetingUserID string, start time.Time, topic, password string) (*Details, error)
	DeleteMeeting(ctx context.Context, meetingID int64) error
	Password(guideID uuid.UUID) string
}

const (
	tokenLifetime    = 10 * time.Minute
	tokenRenewMargin = 2 * time.Minute
)

type Config struct {
	BaseURL      string
	APIKey       string
	APISecret    string
	PasswordSeed string
	Timeout      time.Duration
}

// Client talks to the meeting provider's REST API with an internally
// renewed HS256 bearer token. Safe for concurrent use.
type Client struct {
	baseURL      string
	apiKey       string
	apiSecret    string
	passwordSeed string
	httpClient   *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		apiSecret:    cfg.APISecret,
		passwordSeed: cfg.PasswordSeed,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

var defaultCreateParams = map[string]any{
	"type":     2, // scheduled meeting
	"timezone": "UTC",
	"settings": map[string]any{
		"host_video":        true,
		"participant_video": false,
		"join_before_host":  true,
		"mute_upon_entry":   true,
		"audio":             "voip",
	},
}

func (c *Client) CreateMeeting(ctx context.Context, meetingUserID string, start time.Time, topic, password string) (*Details, error) {
	body := map[string]any{}
	for k, v := range defaultCreateParams {
		body[k] = v
	}
	body["topic"] = topic
	body["start_time"] = start.UTC().Format(time.RFC3339)
	if password != "" {
		body["password"] = password
	}

	var details Details
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/users/%s/meetings", meetingUserID), body, &details)
	if err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) DeleteMeeting(ctx context.Context, meetingID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/meetings/%d", meetingID), nil, nil)
}

// Password derives a stable per-guide meeting password from the shared
// seed: first 8 characters of a base64 SHA1 digest with a dash inserted to
// make it easier to read.
func (c *Client) Password(guideID uuid.UUID) string {
	sum := sha1.Sum([]byte(c.passwordSeed + guideID.String()))
	digest := base64.StdEncoding.EncodeToString(sum[:])[:8]

	var b int
	for _, v := range guideID {
		b += int(v)
	}
	g := 2 + b%6
	return digest[:g] + "-" + digest[g:]
}

func (c *Client) do(ctx context.Context, method, route string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.bearerToken(time.Now())
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: %d: %s", method, route, resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// bearerToken returns the cached token, renewing it when it expires in
// less than tokenRenewMargin.
func (c *Client) bearerToken(now time.Time) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.tokenExpiry.Add(-tokenRenewMargin).After(now) {
		return c.token, nil
	}

	expiry := now.Add(tokenLifetime)
	claims := jwt.MapClaims{
		"iss": c.apiKey,
		"exp": expiry.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.apiSecret))
	if err != nil {
		return "", err
	}

	c.token = token
	c.tokenExpiry = expiry
	return token, nil
}
