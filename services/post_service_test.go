package services

import (
	"context"
	"errors"
	"testing"

	"novabyte-blog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var author = models.Actor{ID: "author-1"}

type postServiceFixture struct {
	tx     *passThroughTx
	posts  *mockPostRepository
	drafts *mockDraftRepository
	visits *mockVisitRepository
	svc    PostService
}

func newPostServiceFixture(opts ...PostServiceOption) *postServiceFixture {
	f := &postServiceFixture{
		tx:     &passThroughTx{},
		posts:  &mockPostRepository{},
		drafts: &mockDraftRepository{},
		visits: &mockVisitRepository{},
	}
	f.svc = NewPostService(f.tx, f.posts, f.drafts, f.visits, opts...)
	return f
}

func (f *postServiceFixture) assertExpectations(t *testing.T) {
	f.posts.AssertExpectations(t)
	f.drafts.AssertExpectations(t)
	f.visits.AssertExpectations(t)
}

func TestPostService_CreateDraft_NewPost(t *testing.T) {
	f := newPostServiceFixture()
	ctx := context.Background()
	post := &models.Post{ID: "post-1", MetaID: "meta-1"}

	f.posts.On("Create", mock.Anything, "author-1").Return(post, nil).Once()
	f.drafts.On("Create", mock.Anything, mock.MatchedBy(func(d *models.Draft) bool {
		return d.PostID == "post-1" && d.MetaID == "meta-1" && d.AuthorID == "author-1" &&
			d.Title == "Hello" && d.Body == "body" && !d.Published
	})).Return(&models.Draft{ID: "draft-1", PostID: "post-1"}, nil).Once()

	draft, err := f.svc.CreateDraft(ctx, models.CreateDraftInput{Title: "Hello", Body: "body"}, author)
	require.NoError(t, err)
	assert.Equal(t, "draft-1", draft.ID)
	assert.Equal(t, 1, f.tx.calls)
	f.assertExpectations(t)
}

func TestPostService_CreateDraft_NewPostDraftFails(t *testing.T) {
	f := newPostServiceFixture()
	boom := models.ErrorStoreFailure{Op: "insert draft", Err: errors.New("disk full")}

	f.posts.On("Create", mock.Anything, "author-1").Return(&models.Post{ID: "post-1", MetaID: "meta-1"}, nil).Once()
	f.drafts.On("Create", mock.Anything, mock.Anything).Return(nil, boom).Once()

	_, err := f.svc.CreateDraft(context.Background(), models.CreateDraftInput{Title: "Hello"}, author)
	assert.ErrorIs(t, err, boom)
	f.assertExpectations(t)
}

func TestPostService_CreateDraft_ExistingPost(t *testing.T) {
	f := newPostServiceFixture()
	postID := "post-1"

	f.posts.On("GetByID", mock.Anything, postID).Return(ownedPost(postID, "author-1"), nil).Once()
	f.drafts.On("Create", mock.Anything, mock.MatchedBy(func(d *models.Draft) bool {
		return d.PostID == postID && d.MetaID == "meta-1"
	})).Return(&models.Draft{ID: "draft-2", PostID: postID}, nil).Once()

	draft, err := f.svc.CreateDraft(context.Background(), models.CreateDraftInput{PostID: &postID, Title: "v2"}, author)
	require.NoError(t, err)
	assert.Equal(t, "draft-2", draft.ID)
	assert.Equal(t, 0, f.tx.calls)
	f.assertExpectations(t)
}

func TestPostService_CreateDraft_ExistingPostPublished(t *testing.T) {
	f := newPostServiceFixture()
	postID := "post-1"

	f.posts.On("GetByID", mock.Anything, postID).Return(ownedPost(postID, "author-1"), nil).Once()
	f.posts.On("LockForUpdate", mock.Anything, postID).Return(nil).Once()
	f.drafts.On("UnpublishAllForPost", mock.Anything, postID).Return(nil).Once()
	f.drafts.On("Create", mock.Anything, mock.MatchedBy(func(d *models.Draft) bool {
		return d.Published
	})).Return(&models.Draft{ID: "draft-2", PostID: postID, Published: true}, nil).Once()

	draft, err := f.svc.CreateDraft(context.Background(), models.CreateDraftInput{PostID: &postID, Title: "v2", Published: true}, author)
	require.NoError(t, err)
	assert.True(t, draft.Published)
	assert.Equal(t, 1, f.tx.calls)
	f.assertExpectations(t)
}

func ownedPost(postID, creator string) *models.Post {
	return &models.Post{ID: postID, MetaID: "meta-1", Meta: models.Meta{ID: "meta-1", CreatedBy: creator}}
}

func TestPostService_CreateDraft_OthersPostForbidden(t *testing.T) {
	for _, published := range []bool{false, true} {
		f := newPostServiceFixture()
		postID := "post-1"

		f.posts.On("GetByID", mock.Anything, postID).Return(ownedPost(postID, "someone-else"), nil).Once()

		_, err := f.svc.CreateDraft(context.Background(), models.CreateDraftInput{PostID: &postID, Title: "v2", Published: published}, author)
		var forbidden models.ErrorForbidden
		assert.True(t, errors.As(err, &forbidden))
		assert.Equal(t, 0, f.tx.calls)
		f.drafts.AssertNotCalled(t, "UnpublishAllForPost", mock.Anything, mock.Anything)
		f.drafts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	}
}

func TestPostService_CreateDraft_AdminOnOthersPost(t *testing.T) {
	f := newPostServiceFixture()
	postID := "post-1"

	f.posts.On("GetByID", mock.Anything, postID).Return(ownedPost(postID, "someone-else"), nil).Once()
	f.drafts.On("Create", mock.Anything, mock.MatchedBy(func(d *models.Draft) bool {
		return d.AuthorID == "admin-1"
	})).Return(&models.Draft{ID: "draft-2", PostID: postID}, nil).Once()

	_, err := f.svc.CreateDraft(context.Background(), models.CreateDraftInput{PostID: &postID, Title: "v2"}, models.Actor{ID: "admin-1", IsAdmin: true})
	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestPostService_CreateDraft_UnknownPost(t *testing.T) {
	f := newPostServiceFixture()
	postID := "missing"

	f.posts.On("GetByID", mock.Anything, postID).Return(nil, models.ErrorNotFound{Resource: "post", ID: postID}).Once()

	_, err := f.svc.CreateDraft(context.Background(), models.CreateDraftInput{PostID: &postID, Title: "v2"}, author)
	assert.True(t, models.IsNotFound(err))
	f.assertExpectations(t)
}

func TestPostService_CreateDraft_Invalid(t *testing.T) {
	f := newPostServiceFixture()

	_, err := f.svc.CreateDraft(context.Background(), models.CreateDraftInput{}, author)
	var invalid models.ErrorValidation
	assert.True(t, errors.As(err, &invalid))
	f.assertExpectations(t)
}

func TestPostService_Publish(t *testing.T) {
	f := newPostServiceFixture()

	f.drafts.On("GetPostID", mock.Anything, "draft-2").Return("post-1", nil).Once()
	f.posts.On("LockForUpdate", mock.Anything, "post-1").Return(nil).Once()
	f.drafts.On("UnpublishAllForPost", mock.Anything, "post-1").Return(nil).Once()
	f.drafts.On("SetPublished", mock.Anything, "draft-2", true).
		Return(&models.Draft{ID: "draft-2", PostID: "post-1", Published: true}, nil).Once()

	draft, err := f.svc.Publish(context.Background(), "draft-2")
	require.NoError(t, err)
	assert.True(t, draft.Published)
	assert.Equal(t, 1, f.tx.calls)
	f.assertExpectations(t)
}

func TestPostService_Publish_UnknownDraft(t *testing.T) {
	f := newPostServiceFixture()

	f.drafts.On("GetPostID", mock.Anything, "missing").Return("", models.ErrorNotFound{Resource: "draft", ID: "missing"}).Once()

	_, err := f.svc.Publish(context.Background(), "missing")
	assert.True(t, models.IsNotFound(err))
	assert.Equal(t, 0, f.tx.calls)
	f.assertExpectations(t)
}

func TestPostService_Publish_EmptyReadBack(t *testing.T) {
	f := newPostServiceFixture()

	f.drafts.On("GetPostID", mock.Anything, "draft-2").Return("post-1", nil).Once()
	f.posts.On("LockForUpdate", mock.Anything, "post-1").Return(nil).Once()
	f.drafts.On("UnpublishAllForPost", mock.Anything, "post-1").Return(nil).Once()
	f.drafts.On("SetPublished", mock.Anything, "draft-2", true).
		Return(nil, models.ErrorNotFound{Resource: "draft", ID: "draft-2"}).Once()

	_, err := f.svc.Publish(context.Background(), "draft-2")
	var violation models.ErrorInvariantViolation
	assert.True(t, errors.As(err, &violation))
	f.assertExpectations(t)
}

func TestPostService_Publish_Canceled(t *testing.T) {
	f := newPostServiceFixture()
	canceled := models.ErrorCanceled{Op: "unpublish drafts", Err: context.Canceled}

	f.drafts.On("GetPostID", mock.Anything, "draft-2").Return("post-1", nil).Once()
	f.posts.On("LockForUpdate", mock.Anything, "post-1").Return(nil).Once()
	f.drafts.On("UnpublishAllForPost", mock.Anything, "post-1").Return(canceled).Once()

	_, err := f.svc.Publish(context.Background(), "draft-2")
	assert.True(t, models.IsCanceled(err))
	f.drafts.AssertNotCalled(t, "SetPublished", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostService_Unpublish(t *testing.T) {
	f := newPostServiceFixture()

	f.drafts.On("SetPublished", mock.Anything, "draft-2", false).
		Return(&models.Draft{ID: "draft-2"}, nil).Twice()

	for i := 0; i < 2; i++ {
		draft, err := f.svc.Unpublish(context.Background(), "draft-2")
		require.NoError(t, err)
		assert.False(t, draft.Published)
	}
	assert.Equal(t, 0, f.tx.calls)
	f.assertExpectations(t)
}

func TestPostService_ListCurrentDrafts_SkipsRacingPublish(t *testing.T) {
	f := newPostServiceFixture()

	f.drafts.On("ListUnpublishedPostIDs", mock.Anything).Return([]string{"post-1", "post-2"}, nil).Once()
	f.drafts.On("GetCurrent", mock.Anything, "post-1").Return(&models.Draft{ID: "draft-1"}, nil).Once()
	f.drafts.On("GetCurrent", mock.Anything, "post-2").Return(nil, models.ErrorNotFound{Resource: "current draft of post", ID: "post-2"}).Once()

	drafts, err := f.svc.ListCurrentDrafts(context.Background())
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "draft-1", drafts[0].ID)
	f.assertExpectations(t)
}

func TestPostService_ListPublished_AttachesVisits(t *testing.T) {
	f := newPostServiceFixture()

	f.drafts.On("ListPublished", mock.Anything).Return([]models.Draft{{ID: "d1"}, {ID: "d2"}}, nil).Once()
	f.visits.On("Counts", mock.Anything, []string{"d1", "d2"}).Return(map[string]int64{"d2": 7}, nil).Once()

	drafts, err := f.svc.ListPublished(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), drafts[0].Visits)
	assert.Equal(t, int64(7), drafts[1].Visits)
	f.assertExpectations(t)
}

func TestPostService_ListPublished_CounterDown(t *testing.T) {
	f := newPostServiceFixture()

	f.drafts.On("ListPublished", mock.Anything).Return([]models.Draft{{ID: "d1"}}, nil).Once()
	f.visits.On("Counts", mock.Anything, []string{"d1"}).Return(nil, errors.New("redis down")).Once()

	drafts, err := f.svc.ListPublished(context.Background())
	require.NoError(t, err)
	assert.Len(t, drafts, 1)
	f.assertExpectations(t)
}

func TestPostService_PickRandomPublished(t *testing.T) {
	f := newPostServiceFixture(WithRandom(func(n int) int { return n - 1 }))

	f.drafts.On("ListPublished", mock.Anything).Return([]models.Draft{{ID: "d1"}, {ID: "d2"}, {ID: "d3"}}, nil).Once()
	f.visits.On("Increment", mock.Anything, "d3").Return(int64(4), nil).Once()

	draft, err := f.svc.PickRandomPublished(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "d3", draft.ID)
	assert.Equal(t, int64(4), draft.Visits)
	f.assertExpectations(t)
}

func TestPostService_PickRandomPublished_Empty(t *testing.T) {
	f := newPostServiceFixture()

	f.drafts.On("ListPublished", mock.Anything).Return([]models.Draft{}, nil).Once()

	_, err := f.svc.PickRandomPublished(context.Background())
	assert.True(t, models.IsNotFound(err))
	f.assertExpectations(t)
}

func TestPostService_ViewDraft_CountsVisit(t *testing.T) {
	f := newPostServiceFixture()

	f.drafts.On("GetByID", mock.Anything, "d1").Return(&models.Draft{ID: "d1", Published: true}, nil).Once()
	f.visits.On("Increment", mock.Anything, "d1").Return(int64(12), nil).Once()

	draft, err := f.svc.ViewDraft(context.Background(), "d1", models.Actor{})
	require.NoError(t, err)
	assert.Equal(t, int64(12), draft.Visits)
	f.assertExpectations(t)
}

func TestPostService_GetPostDrafts_UnknownPost(t *testing.T) {
	f := newPostServiceFixture()

	f.posts.On("GetByID", mock.Anything, "missing").Return(nil, models.ErrorNotFound{Resource: "post", ID: "missing"}).Once()

	_, err := f.svc.GetPostDrafts(context.Background(), "missing")
	assert.True(t, models.IsNotFound(err))
	f.assertExpectations(t)
}

func TestPostService_ViewDraft_UnpublishedHiddenFromOthers(t *testing.T) {
	f := newPostServiceFixture()
	unpublished := &models.Draft{ID: "d1", Meta: models.Meta{CreatedBy: "author-1"}}

	f.drafts.On("GetByID", mock.Anything, "d1").Return(unpublished, nil).Times(3)
	f.visits.On("Increment", mock.Anything, "d1").Return(int64(1), nil).Once()

	_, err := f.svc.ViewDraft(context.Background(), "d1", models.Actor{})
	assert.True(t, models.IsNotFound(err))
	_, err = f.svc.ViewDraft(context.Background(), "d1", models.Actor{ID: "reader-1"})
	assert.True(t, models.IsNotFound(err))

	draft, err := f.svc.ViewDraft(context.Background(), "d1", author)
	require.NoError(t, err)
	assert.Equal(t, int64(1), draft.Visits)
	f.assertExpectations(t)
}
