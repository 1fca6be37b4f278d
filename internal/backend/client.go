package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Kushalrock/reposignal-app/core/config"
	"github.com/Kushalrock/reposignal-app/internal/domain"
)

// Client is the backend state service surface. Every call carries a
// bearer credential; the credential is never logged.
type Client interface {
	ClassifyIssue(ctx context.Context, params ClassifyIssueParams) error
	SubmitFeedback(ctx context.Context, params FeedbackParams) error
	WriteLog(ctx context.Context, entry domain.LogEntry) error

	SyncInstallation(ctx context.Context, params InstallationParams) error
	AddRepository(ctx context.Context, params RepositoryParams) error
	UpdateMetadata(ctx context.Context, params MetadataParams) error
	UpdateSettings(ctx context.Context, params SettingsParams) error
	DeleteIssue(ctx context.Context, repositoryID, issueID int64) error
}

// ActorDescriptor identifies who performed a classification. Feedback
// submissions have no equivalent: that call's contract enforces
// anonymity structurally by having no identity field at all.
type ActorDescriptor struct {
	Role  domain.Role `json:"role"`
	Login string      `json:"login,omitempty"`
	ID    int64       `json:"id,omitempty"`
}

type ClassifyIssueParams struct {
	RepositoryID int64            `json:"repositoryId"`
	IssueID      int64            `json:"issueId"`
	Difficulty   *int             `json:"difficulty,omitempty"`
	IssueType    *domain.IssueType `json:"issueType,omitempty"`
	Hidden       *bool            `json:"hidden,omitempty"`
	Actor        ActorDescriptor  `json:"actor"`
}

type FeedbackParams struct {
	PullRequestID        int64 `json:"pullRequestId"`
	RepositoryID         int64 `json:"repositoryId"`
	DifficultyRating     *int  `json:"difficultyRating"`
	ResponsivenessRating *int  `json:"responsivenessRating"`
}

type InstallationParams struct {
	InstallationID int64    `json:"installationId"`
	AccountLogin   string   `json:"accountLogin"`
	Repositories   []string `json:"repositories,omitempty"`
}

type RepositoryParams struct {
	InstallationID int64  `json:"installationId"`
	Owner          string `json:"owner"`
	Name           string `json:"name"`
}

type MetadataParams struct {
	RepositoryID int64   `json:"repositoryId"`
	Description  *string `json:"description,omitempty"`
	Topics       []string `json:"topics,omitempty"`
}

type SettingsParams struct {
	RepositoryID int64          `json:"repositoryId"`
	Settings     map[string]any `json:"settings"`
}

type httpClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(cfg config.BackendConfig) Client {
	return &httpClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *httpClient) ClassifyIssue(ctx context.Context, params ClassifyIssueParams) error {
	return c.post(ctx, "/api/issues/classify", params)
}

func (c *httpClient) SubmitFeedback(ctx context.Context, params FeedbackParams) error {
	return c.post(ctx, "/api/feedback", params)
}

func (c *httpClient) WriteLog(ctx context.Context, entry domain.LogEntry) error {
	body := struct {
		ActorRole  domain.Role `json:"actorRole"`
		ActorLogin *string     `json:"actorLogin"`
		ActorID    *int64      `json:"actorId"`
		Action     string      `json:"action"`
		EntityRef  string      `json:"entityRef"`
		Context    string      `json:"context"`
	}{entry.ActorRole, entry.ActorLogin, entry.ActorID, entry.Action, entry.EntityRef, entry.Context}

	return c.post(ctx, "/api/logs", body)
}

func (c *httpClient) SyncInstallation(ctx context.Context, params InstallationParams) error {
	return c.post(ctx, "/api/installations/sync", params)
}

func (c *httpClient) AddRepository(ctx context.Context, params RepositoryParams) error {
	return c.post(ctx, "/api/repositories", params)
}

func (c *httpClient) UpdateMetadata(ctx context.Context, params MetadataParams) error {
	return c.post(ctx, "/api/repositories/metadata", params)
}

func (c *httpClient) UpdateSettings(ctx context.Context, params SettingsParams) error {
	return c.post(ctx, "/api/repositories/settings", params)
}

func (c *httpClient) DeleteIssue(ctx context.Context, repositoryID, issueID int64) error {
	body := struct {
		RepositoryID int64 `json:"repositoryId"`
		IssueID      int64 `json:"issueId"`
	}{repositoryID, issueID}

	return c.post(ctx, "/api/issues/delete", body)
}

func (c *httpClient) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling backend %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a bounded slice of the body for diagnostics; the backend's
		// error text never reaches users.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend %s returned %d: %s", path, resp.StatusCode, snippet)
	}

	return nil
}
