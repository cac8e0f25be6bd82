package contract

import (
	"context"

	"github.com/huangsam/ticsgate/schema"
	"github.com/stretchr/testify/mock"
)

// MockPlatform is a mock implementation of Platform for testing.
type MockPlatform struct {
	mock.Mock
}

var _ Platform = &MockPlatform{} // Compile-time check

// PullRequestFileCount implements the Platform interface.
func (m *MockPlatform) PullRequestFileCount(ctx context.Context, number int) (int, error) {
	args := m.Called(ctx, number)
	return args.Int(0), args.Error(1)
}

// ListPullRequestFiles implements the Platform interface.
// Every returned file is also passed to onFile.
func (m *MockPlatform) ListPullRequestFiles(ctx context.Context, number int, onFile func(schema.ChangedFile)) ([]schema.ChangedFile, error) {
	args := m.Called(ctx, number, onFile)
	files, _ := args.Get(0).([]schema.ChangedFile)
	if onFile != nil {
		for _, f := range files {
			onFile(f)
		}
	}
	return files, args.Error(1)
}

// QueryPullRequestFiles implements the Platform interface.
func (m *MockPlatform) QueryPullRequestFiles(ctx context.Context, number int) ([]schema.ChangedFile, error) {
	args := m.Called(ctx, number)
	files, _ := args.Get(0).([]schema.ChangedFile)
	return files, args.Error(1)
}

// CompareCommits implements the Platform interface.
func (m *MockPlatform) CompareCommits(ctx context.Context, base, head string) ([]schema.ChangedFile, error) {
	args := m.Called(ctx, base, head)
	files, _ := args.Get(0).([]schema.ChangedFile)
	return files, args.Error(1)
}

// ListIssueComments implements the Platform interface.
func (m *MockPlatform) ListIssueComments(ctx context.Context, number int) ([]schema.Comment, error) {
	args := m.Called(ctx, number)
	comments, _ := args.Get(0).([]schema.Comment)
	return comments, args.Error(1)
}

// CreateIssueComment implements the Platform interface.
func (m *MockPlatform) CreateIssueComment(ctx context.Context, number int, body string) error {
	args := m.Called(ctx, number, body)
	return args.Error(0)
}

// DeleteIssueComment implements the Platform interface.
func (m *MockPlatform) DeleteIssueComment(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ListReviewComments implements the Platform interface.
func (m *MockPlatform) ListReviewComments(ctx context.Context, number int) ([]schema.Comment, error) {
	args := m.Called(ctx, number)
	comments, _ := args.Get(0).([]schema.Comment)
	return comments, args.Error(1)
}

// DeleteReviewComment implements the Platform interface.
func (m *MockPlatform) DeleteReviewComment(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// CreateReview implements the Platform interface.
func (m *MockPlatform) CreateReview(ctx context.Context, number int, review schema.ReviewRequest) error {
	args := m.Called(ctx, number, review)
	return args.Error(0)
}

// RateLimitRemaining implements the Platform interface.
func (m *MockPlatform) RateLimitRemaining(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockExecutor is a mock implementation of Executor for testing.
type MockExecutor struct {
	mock.Mock
}

var _ Executor = &MockExecutor{} // Compile-time check

// Run implements the Executor interface.
func (m *MockExecutor) Run(ctx context.Context, commandLine string, env map[string]string) schema.AnalysisResult {
	args := m.Called(ctx, commandLine, env)
	return args.Get(0).(schema.AnalysisResult)
}

// MockQualityGateFetcher is a mock implementation of QualityGateFetcher for testing.
type MockQualityGateFetcher struct {
	mock.Mock
}

var _ QualityGateFetcher = &MockQualityGateFetcher{} // Compile-time check

// QualityGate implements the QualityGateFetcher interface.
func (m *MockQualityGateFetcher) QualityGate(ctx context.Context, filter schema.GateFilter) (*schema.QualityGate, error) {
	args := m.Called(ctx, filter)
	qg, _ := args.Get(0).(*schema.QualityGate)
	return qg, args.Error(1)
}

// Annotations implements the QualityGateFetcher interface.
func (m *MockQualityGateFetcher) Annotations(ctx context.Context, links []schema.Link) ([]schema.ViewerAnnotation, error) {
	args := m.Called(ctx, links)
	annotations, _ := args.Get(0).([]schema.ViewerAnnotation)
	return annotations, args.Error(1)
}

// LastRunDate implements the QualityGateFetcher interface.
func (m *MockQualityGateFetcher) LastRunDate(ctx context.Context, project, branch string) (int64, error) {
	args := m.Called(ctx, project, branch)
	return args.Get(0).(int64), args.Error(1)
}

// MockInstaller is a mock implementation of Installer for testing.
type MockInstaller struct {
	mock.Mock
}

var _ Installer = &MockInstaller{} // Compile-time check

// InstallURL implements the Installer interface.
func (m *MockInstaller) InstallURL(ctx context.Context, platform schema.Platform) (string, error) {
	args := m.Called(ctx, platform)
	return args.String(0), args.Error(1)
}

// MockLocalRepository is a mock implementation of LocalRepository for testing.
type MockLocalRepository struct {
	mock.Mock
}

var _ LocalRepository = &MockLocalRepository{} // Compile-time check

// ChangedFiles implements the LocalRepository interface.
func (m *MockLocalRepository) ChangedFiles(ctx context.Context) ([]schema.ChangedFile, error) {
	args := m.Called(ctx)
	files, _ := args.Get(0).([]schema.ChangedFile)
	return files, args.Error(1)
}
