package services

import (
	"context"

	"novabyte-blog/models"

	"github.com/stretchr/testify/mock"
)

// passThroughTx runs fn on the caller's context and records whether it was
// used.
type passThroughTx struct {
	calls int
}

func (t *passThroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type mockPostRepository struct {
	mock.Mock
}

func (m *mockPostRepository) Create(ctx context.Context, createdBy string) (*models.Post, error) {
	args := m.Called(ctx, createdBy)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *mockPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *mockPostRepository) LockForUpdate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockPostRepository) ListWithWorkingTitle(ctx context.Context) ([]models.PostSummary, error) {
	args := m.Called(ctx)
	summaries, _ := args.Get(0).([]models.PostSummary)
	return summaries, args.Error(1)
}

type mockDraftRepository struct {
	mock.Mock
}

func (m *mockDraftRepository) Create(ctx context.Context, draft *models.Draft) (*models.Draft, error) {
	args := m.Called(ctx, draft)
	created, _ := args.Get(0).(*models.Draft)
	return created, args.Error(1)
}

func (m *mockDraftRepository) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	args := m.Called(ctx, id)
	draft, _ := args.Get(0).(*models.Draft)
	return draft, args.Error(1)
}

func (m *mockDraftRepository) GetPostID(ctx context.Context, draftID string) (string, error) {
	args := m.Called(ctx, draftID)
	return args.String(0), args.Error(1)
}

func (m *mockDraftRepository) ListByPost(ctx context.Context, postID string) ([]models.Draft, error) {
	args := m.Called(ctx, postID)
	drafts, _ := args.Get(0).([]models.Draft)
	return drafts, args.Error(1)
}

func (m *mockDraftRepository) GetCurrent(ctx context.Context, postID string) (*models.Draft, error) {
	args := m.Called(ctx, postID)
	draft, _ := args.Get(0).(*models.Draft)
	return draft, args.Error(1)
}

func (m *mockDraftRepository) GetLatestPublished(ctx context.Context, postID string) (*models.Draft, error) {
	args := m.Called(ctx, postID)
	draft, _ := args.Get(0).(*models.Draft)
	return draft, args.Error(1)
}

func (m *mockDraftRepository) ListUnpublishedPostIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockDraftRepository) ListPublished(ctx context.Context) ([]models.Draft, error) {
	args := m.Called(ctx)
	drafts, _ := args.Get(0).([]models.Draft)
	return drafts, args.Error(1)
}

func (m *mockDraftRepository) UnpublishAllForPost(ctx context.Context, postID string) error {
	return m.Called(ctx, postID).Error(0)
}

func (m *mockDraftRepository) SetPublished(ctx context.Context, draftID string, published bool) (*models.Draft, error) {
	args := m.Called(ctx, draftID, published)
	draft, _ := args.Get(0).(*models.Draft)
	return draft, args.Error(1)
}

type mockVisitRepository struct {
	mock.Mock
}

func (m *mockVisitRepository) Increment(ctx context.Context, draftID string) (int64, error) {
	args := m.Called(ctx, draftID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockVisitRepository) Counts(ctx context.Context, draftIDs ...string) (map[string]int64, error) {
	args := m.Called(ctx, draftIDs)
	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}

type mockPersonRepository struct {
	mock.Mock
}

func (m *mockPersonRepository) Create(ctx context.Context, person *models.Person, createdBy string) (*models.Person, error) {
	args := m.Called(ctx, person, createdBy)
	created, _ := args.Get(0).(*models.Person)
	return created, args.Error(1)
}

func (m *mockPersonRepository) GetByID(ctx context.Context, id string) (*models.Person, error) {
	args := m.Called(ctx, id)
	person, _ := args.Get(0).(*models.Person)
	return person, args.Error(1)
}

func (m *mockPersonRepository) GetByEmail(ctx context.Context, email string) (*models.Person, error) {
	args := m.Called(ctx, email)
	person, _ := args.Get(0).(*models.Person)
	return person, args.Error(1)
}

func (m *mockPersonRepository) List(ctx context.Context) ([]models.Person, error) {
	args := m.Called(ctx)
	persons, _ := args.Get(0).([]models.Person)
	return persons, args.Error(1)
}

type mockTokenRepository struct {
	mock.Mock
}

func (m *mockTokenRepository) Create(ctx context.Context, personID string) (*models.RefreshToken, error) {
	args := m.Called(ctx, personID)
	token, _ := args.Get(0).(*models.RefreshToken)
	return token, args.Error(1)
}

func (m *mockTokenRepository) GetByID(ctx context.Context, id string) (*models.RefreshToken, error) {
	args := m.Called(ctx, id)
	token, _ := args.Get(0).(*models.RefreshToken)
	return token, args.Error(1)
}

func (m *mockTokenRepository) SoftDelete(ctx context.Context, tokenID string, deletedBy string) (bool, error) {
	args := m.Called(ctx, tokenID, deletedBy)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenRepository) SoftDeleteAllForPerson(ctx context.Context, personID string, deletedBy string) (int64, error) {
	args := m.Called(ctx, personID, deletedBy)
	return args.Get(0).(int64), args.Error(1)
}
