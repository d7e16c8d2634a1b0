// Package client is a Go SDK for the quest-engine HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ecoquest/quest-engine/internal/models"
)

// Client is a Go SDK for the quest-engine API
type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new quest-engine client acting as the given user
func NewClient(baseURL, userID string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// apiEnvelope mirrors the server's response wrapper
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *APIError       `json:"error,omitempty"`
}

// APIError is a structured error returned by the API
type APIError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// do performs a request and decodes the envelope into out
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if envelope.Error != nil {
		return envelope.Error
	}
	if !envelope.Success {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}

	return nil
}

// QuestList is the catalog listing response
type QuestList struct {
	Quests []*models.Quest `json:"quests"`
	Total  int             `json:"total"`
}

// ListQuests retrieves the quest catalog
func (c *Client) ListQuests(ctx context.Context) (*QuestList, error) {
	var out QuestList
	if err := c.do(ctx, http.MethodGet, "/api/v1/quests", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetQuest retrieves one quest by ID
func (c *Client) GetQuest(ctx context.Context, questID string) (*models.Quest, error) {
	var out models.Quest
	if err := c.do(ctx, http.MethodGet, "/api/v1/quests/"+questID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TipsResponse carries the photo tips for a quest
type TipsResponse struct {
	QuestID string   `json:"quest_id"`
	Tips    []string `json:"tips"`
}

// GetTips retrieves the photo tips for a quest
func (c *Client) GetTips(ctx context.Context, questID string) (*TipsResponse, error) {
	var out TipsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/quests/"+questID+"/tips", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// JoinResponse carries the participant count after joining
type JoinResponse struct {
	QuestID      string `json:"quest_id"`
	Participants int    `json:"participants"`
}

// JoinQuest registers the acting user as a quest participant
func (c *Client) JoinQuest(ctx context.Context, questID string) (*JoinResponse, error) {
	var out JoinResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/quests/"+questID+"/join", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitResponse bundles the verdict with any progression effects
type SubmitResponse struct {
	Result      *models.VerificationResult `json:"result"`
	Quest       *models.Quest              `json:"quest,omitempty"`
	Progression *models.UserProgression    `json:"progression,omitempty"`
	Achievement *models.Achievement        `json:"achievement,omitempty"`
}

// SubmitEvidence submits an evidence artifact descriptor for a quest
func (c *Client) SubmitEvidence(ctx context.Context, questID string, artifact models.Artifact) (*SubmitResponse, error) {
	body := map[string]models.Artifact{"artifact": artifact}

	var out SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/quests/"+questID+"/submissions", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProgressResponse is a user's progression record with quest states
type ProgressResponse struct {
	Progression *models.UserProgression `json:"progression"`
	Quests      []*models.Quest         `json:"quests"`
}

// GetProgress retrieves a user's progression and quest states
func (c *Client) GetProgress(ctx context.Context, userID string) (*ProgressResponse, error) {
	var out ProgressResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/"+userID+"/progress", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AchievementList is a user's achievements, most recent first
type AchievementList struct {
	Achievements []*models.Achievement `json:"achievements"`
	Total        int                   `json:"total"`
}

// GetAchievements retrieves a user's achievements
func (c *Client) GetAchievements(ctx context.Context, userID string) (*AchievementList, error) {
	var out AchievementList
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/"+userID+"/achievements", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmissionList is a user's submission history
type SubmissionList struct {
	Submissions []*models.Submission `json:"submissions"`
	Total       int                  `json:"total"`
}

// GetSubmissions retrieves a user's submission history
func (c *Client) GetSubmissions(ctx context.Context, userID string, limit int) (*SubmissionList, error) {
	path := fmt.Sprintf("/api/v1/users/%s/submissions?limit=%d", userID, limit)

	var out SubmissionList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LeaderboardEntry is one ranked user
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	XP     int    `json:"xp"`
	Level  int    `json:"level"`
}

// LeaderboardResponse is the ranked listing
type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
	Total   int                `json:"total"`
}

// Leaderboard retrieves the top-XP users
func (c *Client) Leaderboard(ctx context.Context, limit int) (*LeaderboardResponse, error) {
	path := fmt.Sprintf("/api/v1/leaderboard?limit=%d", limit)

	var out LeaderboardResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
