package repositories

import (
	"context"
	"errors"
	"testing"

	"novabyte-blog/models"
	"novabyte-blog/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type RepositoryTestSuite struct {
	suite.Suite
	ctx    context.Context
	db     *gorm.DB
	uow    *UnitOfWork
	meta   MetaRepository
	posts  PostRepository
	drafts DraftRepository
	people PersonRepository
	tokens TokenRepository
}

func (s *RepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	clock := testutil.NewClock()

	s.uow = NewUnitOfWork(s.db)
	s.meta = NewMetaRepository(s.db, clock.Now)
	s.posts = NewPostRepository(s.db, s.uow, s.meta)
	s.drafts = NewDraftRepository(s.db, clock.Now)
	s.people = NewPersonRepository(s.db, s.uow, s.meta)
	s.tokens = NewTokenRepository(s.db, s.uow, s.meta)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func (s *RepositoryTestSuite) count(model interface{}) int64 {
	var n int64
	s.Require().NoError(s.db.Model(model).Count(&n).Error)
	return n
}

func (s *RepositoryTestSuite) newPost() *models.Post {
	post, err := s.posts.Create(s.ctx, "author-1")
	s.Require().NoError(err)
	return post
}

func (s *RepositoryTestSuite) newDraft(post *models.Post, title string) *models.Draft {
	draft, err := s.drafts.Create(s.ctx, &models.Draft{
		PostID:   post.ID,
		AuthorID: "author-1",
		Title:    title,
		Body:     models.CompressedText("# " + title),
		MetaID:   post.MetaID,
	})
	s.Require().NoError(err)
	return draft
}

func (s *RepositoryTestSuite) TestMeta_CreateAndGet() {
	meta, err := s.meta.Create(s.ctx, "alice")
	s.Require().NoError(err)
	s.NotEmpty(meta.ID)
	s.Equal("alice", meta.CreatedBy)
	s.False(meta.CreatedOn.IsZero())
	s.Nil(meta.ModifiedOn)
	s.False(meta.IsDeleted())

	got, err := s.meta.GetByID(s.ctx, meta.ID)
	s.Require().NoError(err)
	s.Equal(meta.ID, got.ID)
}

func (s *RepositoryTestSuite) TestMeta_GetMissing() {
	_, err := s.meta.GetByID(s.ctx, "missing")
	var notFound models.ErrorNotFound
	s.True(errors.As(err, &notFound))
	s.Equal("meta", notFound.Resource)
}

func (s *RepositoryTestSuite) TestMeta_SoftDeleteOnlyOnce() {
	meta, err := s.meta.Create(s.ctx, "alice")
	s.Require().NoError(err)

	n, err := s.meta.SoftDelete(s.ctx, []string{meta.ID}, "bob")
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	n, err = s.meta.SoftDelete(s.ctx, []string{meta.ID}, "carol")
	s.Require().NoError(err)
	s.Equal(int64(0), n)

	got, err := s.meta.GetByID(s.ctx, meta.ID)
	s.Require().NoError(err)
	s.True(got.IsDeleted())
	s.Require().NotNil(got.DeletedBy)
	s.Equal("bob", *got.DeletedBy)
}

func (s *RepositoryTestSuite) TestMeta_CanceledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.meta.Create(ctx, "alice")
	s.True(models.IsCanceled(err))
	s.Equal(int64(0), s.count(&models.Meta{}))
}

func (s *RepositoryTestSuite) TestUnitOfWork_CommitsOnSuccess() {
	err := s.uow.Do(s.ctx, func(ctx context.Context) error {
		_, err := s.meta.Create(ctx, "alice")
		return err
	})
	s.Require().NoError(err)
	s.Equal(int64(1), s.count(&models.Meta{}))
}

func (s *RepositoryTestSuite) TestUnitOfWork_RollsBackOnError() {
	boom := errors.New("boom")
	err := s.uow.Do(s.ctx, func(ctx context.Context) error {
		if _, err := s.posts.Create(ctx, "alice"); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)
	s.Equal(int64(0), s.count(&models.Post{}))
	s.Equal(int64(0), s.count(&models.Meta{}))
}

func (s *RepositoryTestSuite) TestUnitOfWork_RollsBackOnPanic() {
	s.Panics(func() {
		_ = s.uow.Do(s.ctx, func(ctx context.Context) error {
			_, _ = s.meta.Create(ctx, "alice")
			panic("boom")
		})
	})
	s.Equal(int64(0), s.count(&models.Meta{}))
}

func (s *RepositoryTestSuite) TestUnitOfWork_ExplicitWork() {
	work, err := s.uow.Begin(s.ctx)
	s.Require().NoError(err)

	_, err = s.meta.Create(work.Context(), "alice")
	s.Require().NoError(err)
	s.Require().NoError(work.Cancel())
	s.NoError(work.Cancel())
	s.Equal(int64(0), s.count(&models.Meta{}))

	work, err = s.uow.Begin(s.ctx)
	s.Require().NoError(err)
	_, err = s.meta.Create(work.Context(), "alice")
	s.Require().NoError(err)
	s.Require().NoError(work.Commit())
	s.NoError(work.Cancel())
	s.Error(work.Commit())
	s.Equal(int64(1), s.count(&models.Meta{}))
}

func (s *RepositoryTestSuite) TestUnitOfWork_BeginCanceled() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.uow.Begin(ctx)
	s.True(models.IsCanceled(err))
}

func (s *RepositoryTestSuite) TestPost_CreateReadsBack() {
	post := s.newPost()
	s.NotEmpty(post.ID)
	s.Equal(post.MetaID, post.Meta.ID)
	s.Equal("author-1", post.Meta.CreatedBy)

	got, err := s.posts.GetByID(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal(post.ID, got.ID)
}

func (s *RepositoryTestSuite) TestPost_GetMissing() {
	_, err := s.posts.GetByID(s.ctx, "missing")
	s.True(models.IsNotFound(err))
}

func (s *RepositoryTestSuite) TestPost_ListWithWorkingTitle() {
	older := s.newPost()
	s.newDraft(older, "first title")
	s.newDraft(older, "second title")

	newer := s.newPost()
	s.newDraft(newer, "other post")

	summaries, err := s.posts.ListWithWorkingTitle(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(summaries, 2)
	s.Equal(newer.ID, summaries[0].ID)
	s.Equal("other post", summaries[0].WorkingTitle)
	s.Equal(older.ID, summaries[1].ID)
	s.Equal("second title", summaries[1].WorkingTitle)
	s.Equal("author-1", summaries[1].Meta.CreatedBy)
}

func (s *RepositoryTestSuite) TestDraft_BodyIsCompressedAtRest() {
	post := s.newPost()
	draft := s.newDraft(post, "hello")
	s.Equal(models.CompressedText("# hello"), draft.Body)
	s.Equal(post.MetaID, draft.Meta.ID)

	var raw []byte
	s.Require().NoError(s.db.Raw("SELECT body FROM drafts WHERE id = ?", draft.ID).Row().Scan(&raw))
	s.NotEqual("# hello", string(raw))
}

func (s *RepositoryTestSuite) TestDraft_CurrentIsNewestUnpublished() {
	post := s.newPost()
	s.newDraft(post, "v1")
	v2 := s.newDraft(post, "v2")
	v3 := s.newDraft(post, "v3")

	current, err := s.drafts.GetCurrent(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal(v3.ID, current.ID)

	_, err = s.drafts.SetPublished(s.ctx, v3.ID, true)
	s.Require().NoError(err)

	current, err = s.drafts.GetCurrent(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal(v2.ID, current.ID)

	published, err := s.drafts.GetLatestPublished(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal(v3.ID, published.ID)
}

func (s *RepositoryTestSuite) TestDraft_CurrentMissing() {
	post := s.newPost()
	_, err := s.drafts.GetCurrent(s.ctx, post.ID)
	s.True(models.IsNotFound(err))
}

func (s *RepositoryTestSuite) TestDraft_GetPostID() {
	post := s.newPost()
	draft := s.newDraft(post, "v1")

	postID, err := s.drafts.GetPostID(s.ctx, draft.ID)
	s.Require().NoError(err)
	s.Equal(post.ID, postID)

	_, err = s.drafts.GetPostID(s.ctx, "missing")
	s.True(models.IsNotFound(err))
}

func (s *RepositoryTestSuite) TestDraft_ListByPostNewestFirst() {
	post := s.newPost()
	v1 := s.newDraft(post, "v1")
	v2 := s.newDraft(post, "v2")
	s.newDraft(s.newPost(), "elsewhere")

	drafts, err := s.drafts.ListByPost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Require().Len(drafts, 2)
	s.Equal(v2.ID, drafts[0].ID)
	s.Equal(v1.ID, drafts[1].ID)
}

func (s *RepositoryTestSuite) TestDraft_UnpublishedAndPublishedLists() {
	unpublished := s.newPost()
	s.newDraft(unpublished, "u1")

	published := s.newPost()
	p1 := s.newDraft(published, "p1")
	s.newDraft(published, "p2")
	_, err := s.drafts.SetPublished(s.ctx, p1.ID, true)
	s.Require().NoError(err)

	later := s.newPost()
	s.newDraft(later, "l1")

	ids, err := s.drafts.ListUnpublishedPostIDs(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{later.ID, unpublished.ID}, ids)

	drafts, err := s.drafts.ListPublished(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(drafts, 1)
	s.Equal(p1.ID, drafts[0].ID)
	s.True(drafts[0].Published)
}

func (s *RepositoryTestSuite) TestDraft_ListsSkipSoftDeletedPosts() {
	kept := s.newPost()
	s.newDraft(kept, "kept draft")
	keptLive := s.newDraft(s.newPost(), "kept live")
	_, err := s.drafts.SetPublished(s.ctx, keptLive.ID, true)
	s.Require().NoError(err)

	gone := s.newPost()
	s.newDraft(gone, "gone draft")
	goneLive := s.newDraft(s.newPost(), "gone live")
	_, err = s.drafts.SetPublished(s.ctx, goneLive.ID, true)
	s.Require().NoError(err)

	n, err := s.meta.SoftDelete(s.ctx, []string{gone.MetaID, goneLive.MetaID}, "admin")
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	ids, err := s.drafts.ListUnpublishedPostIDs(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{kept.ID}, ids)

	drafts, err := s.drafts.ListPublished(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(drafts, 1)
	s.Equal(keptLive.ID, drafts[0].ID)

	summaries, err := s.posts.ListWithWorkingTitle(s.ctx)
	s.Require().NoError(err)
	s.Len(summaries, 2)
}

func (s *RepositoryTestSuite) TestPost_LockForUpdate() {
	post := s.newPost()

	err := s.uow.Do(s.ctx, func(ctx context.Context) error {
		return s.posts.LockForUpdate(ctx, post.ID)
	})
	s.Require().NoError(err)

	err = s.uow.Do(s.ctx, func(ctx context.Context) error {
		return s.posts.LockForUpdate(ctx, "missing")
	})
	s.True(models.IsNotFound(err))
}

func (s *RepositoryTestSuite) TestDraft_UnpublishAllForPost() {
	post := s.newPost()
	v1 := s.newDraft(post, "v1")
	v2 := s.newDraft(post, "v2")
	other := s.newDraft(s.newPost(), "other")
	for _, d := range []*models.Draft{v1, v2, other} {
		_, err := s.drafts.SetPublished(s.ctx, d.ID, true)
		s.Require().NoError(err)
	}

	s.Require().NoError(s.drafts.UnpublishAllForPost(s.ctx, post.ID))

	var n int64
	s.Require().NoError(s.db.Model(&models.Draft{}).Where("published = ?", true).Count(&n).Error)
	s.Equal(int64(1), n)

	got, err := s.drafts.GetByID(s.ctx, other.ID)
	s.Require().NoError(err)
	s.True(got.Published)
}

func (s *RepositoryTestSuite) TestDraft_SetPublishedMissing() {
	_, err := s.drafts.SetPublished(s.ctx, "missing", true)
	s.True(models.IsNotFound(err))
}

func (s *RepositoryTestSuite) TestPerson_CreateAndLookup() {
	person, err := s.people.Create(s.ctx, &models.Person{
		Username: "alice",
		Email:    "alice@example.com",
		PassHash: "hash",
	}, "system")
	s.Require().NoError(err)
	s.Equal("system", person.Meta.CreatedBy)

	byEmail, err := s.people.GetByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(person.ID, byEmail.ID)

	_, err = s.people.Create(s.ctx, &models.Person{
		Username: "alice2",
		Email:    "alice@example.com",
		PassHash: "hash",
	}, "system")
	var conflict models.ErrorConflict
	s.True(errors.As(err, &conflict))
	s.Equal(int64(1), s.count(&models.Person{}))
	s.Equal(int64(1), s.count(&models.Meta{}))
}

func (s *RepositoryTestSuite) TestPerson_SoftDeletedIsHidden() {
	person, err := s.people.Create(s.ctx, &models.Person{
		Username: "bob",
		Email:    "bob@example.com",
		PassHash: "hash",
	}, "system")
	s.Require().NoError(err)

	_, err = s.meta.SoftDelete(s.ctx, []string{person.MetaID}, "admin")
	s.Require().NoError(err)

	_, err = s.people.GetByID(s.ctx, person.ID)
	s.True(models.IsNotFound(err))

	persons, err := s.people.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(persons)
}

func (s *RepositoryTestSuite) TestToken_Lifecycle() {
	first, err := s.tokens.Create(s.ctx, "person-1")
	s.Require().NoError(err)
	second, err := s.tokens.Create(s.ctx, "person-1")
	s.Require().NoError(err)

	revoked, err := s.tokens.SoftDelete(s.ctx, first.ID, "person-1")
	s.Require().NoError(err)
	s.True(revoked)

	revoked, err = s.tokens.SoftDelete(s.ctx, first.ID, "person-1")
	s.Require().NoError(err)
	s.False(revoked)

	n, err := s.tokens.SoftDeleteAllForPerson(s.ctx, "person-1", "person-1")
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	got, err := s.tokens.GetByID(s.ctx, second.ID)
	s.Require().NoError(err)
	s.True(got.Meta.IsDeleted())
}

func TestVisitRepository_NoopWithoutRedis(t *testing.T) {
	visits := NewVisitRepository(nil)

	n, err := visits.Increment(context.Background(), "draft-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	counts, err := visits.Counts(context.Background(), "draft-1", "draft-2")
	require.NoError(t, err)
	assert.Empty(t, counts)
}
