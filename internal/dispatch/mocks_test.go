package dispatch_test

import (
	"context"
	"time"

	"github.com/Kushalrock/reposignal-app/internal/backend"
	"github.com/Kushalrock/reposignal-app/internal/domain"
)

type mockPlatformClient struct {
	collaboratorPermissionFn func(ctx context.Context, owner, repo, login string) (domain.PermissionLevel, error)
	getPullRequestFn         func(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error)
	createCommentFn          func(ctx context.Context, owner, repo string, number int, body string) (int64, error)
	deleteCommentFn          func(ctx context.Context, owner, repo string, commentID int64) error

	createdComments []string
}

func (m *mockPlatformClient) CollaboratorPermission(ctx context.Context, owner, repo, login string) (domain.PermissionLevel, error) {
	if m.collaboratorPermissionFn != nil {
		return m.collaboratorPermissionFn(ctx, owner, repo, login)
	}
	return domain.PermissionRead, nil
}

func (m *mockPlatformClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error) {
	if m.getPullRequestFn != nil {
		return m.getPullRequestFn(ctx, owner, repo, number)
	}
	return nil, nil
}

func (m *mockPlatformClient) CreateComment(ctx context.Context, owner, repo string, number int, body string) (int64, error) {
	m.createdComments = append(m.createdComments, body)
	if m.createCommentFn != nil {
		return m.createCommentFn(ctx, owner, repo, number, body)
	}
	return int64(7000 + len(m.createdComments)), nil
}

func (m *mockPlatformClient) DeleteComment(ctx context.Context, owner, repo string, commentID int64) error {
	if m.deleteCommentFn != nil {
		return m.deleteCommentFn(ctx, owner, repo, commentID)
	}
	return nil
}

type mockBackendClient struct {
	classifyIssueFn  func(ctx context.Context, params backend.ClassifyIssueParams) error
	submitFeedbackFn func(ctx context.Context, params backend.FeedbackParams) error
	writeLogFn       func(ctx context.Context, entry domain.LogEntry) error

	classifyCalls []backend.ClassifyIssueParams
	feedbackCalls []backend.FeedbackParams
	logEntries    []domain.LogEntry
}

func (m *mockBackendClient) ClassifyIssue(ctx context.Context, params backend.ClassifyIssueParams) error {
	m.classifyCalls = append(m.classifyCalls, params)
	if m.classifyIssueFn != nil {
		return m.classifyIssueFn(ctx, params)
	}
	return nil
}

func (m *mockBackendClient) SubmitFeedback(ctx context.Context, params backend.FeedbackParams) error {
	m.feedbackCalls = append(m.feedbackCalls, params)
	if m.submitFeedbackFn != nil {
		return m.submitFeedbackFn(ctx, params)
	}
	return nil
}

func (m *mockBackendClient) WriteLog(ctx context.Context, entry domain.LogEntry) error {
	m.logEntries = append(m.logEntries, entry)
	if m.writeLogFn != nil {
		return m.writeLogFn(ctx, entry)
	}
	return nil
}

func (m *mockBackendClient) SyncInstallation(ctx context.Context, params backend.InstallationParams) error {
	return nil
}

func (m *mockBackendClient) AddRepository(ctx context.Context, params backend.RepositoryParams) error {
	return nil
}

func (m *mockBackendClient) UpdateMetadata(ctx context.Context, params backend.MetadataParams) error {
	return nil
}

func (m *mockBackendClient) UpdateSettings(ctx context.Context, params backend.SettingsParams) error {
	return nil
}

func (m *mockBackendClient) DeleteIssue(ctx context.Context, repositoryID, issueID int64) error {
	return nil
}

type scheduledJob struct {
	job   domain.CleanupJob
	delay time.Duration
}

type mockScheduler struct {
	scheduleFn func(ctx context.Context, job domain.CleanupJob, delay time.Duration) error

	scheduled []scheduledJob
}

func (m *mockScheduler) Schedule(ctx context.Context, job domain.CleanupJob, delay time.Duration) error {
	m.scheduled = append(m.scheduled, scheduledJob{job: job, delay: delay})
	if m.scheduleFn != nil {
		return m.scheduleFn(ctx, job, delay)
	}
	return nil
}

func (m *mockScheduler) Close() error {
	return nil
}
