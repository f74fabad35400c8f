package handlers

import (
	"novabyte-blog/helper"
	"novabyte-blog/middleware"
	"novabyte-blog/models"
	"novabyte-blog/services"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postService services.PostService
	Helper      *helper.HTTPHelper
}

func NewPostHandler(postService services.PostService, h *helper.HTTPHelper) *PostHandler {
	return &PostHandler{postService: postService, Helper: h}
}

func (h *PostHandler) CreateDraft(c *gin.Context) {
	var req models.CreateDraftRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	draft, err := h.postService.CreateDraft(c.Request.Context(), req.Input(), middleware.Actor(c))
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendCreated(c, "Draft created", draft)
}

// GetDraft counts a visit. Unpublished drafts are only shown to the post's
// creator and admins.
func (h *PostHandler) GetDraft(c *gin.Context) {
	draft, err := h.postService.ViewDraft(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Draft loaded", draft)
}

func (h *PostHandler) GetPosts(c *gin.Context) {
	posts, err := h.postService.GetPosts(c.Request.Context())
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Posts loaded", posts)
}

func (h *PostHandler) GetPostDrafts(c *gin.Context) {
	drafts, err := h.postService.GetPostDrafts(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Drafts loaded", drafts)
}

func (h *PostHandler) GetCurrentDraft(c *gin.Context) {
	draft, err := h.postService.GetCurrentDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Current draft loaded", draft)
}

func (h *PostHandler) GetPublishedDraft(c *gin.Context) {
	draft, err := h.postService.GetPublishedDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Published draft loaded", draft)
}

func (h *PostHandler) GetCurrentDrafts(c *gin.Context) {
	drafts, err := h.postService.ListCurrentDrafts(c.Request.Context())
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Current drafts loaded", drafts)
}

func (h *PostHandler) GetPublishedPosts(c *gin.Context) {
	drafts, err := h.postService.ListPublished(c.Request.Context())
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Published posts loaded", drafts)
}

func (h *PostHandler) GetRandomPost(c *gin.Context) {
	draft, err := h.postService.PickRandomPublished(c.Request.Context())
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Random post loaded", draft)
}

func (h *PostHandler) PublishDraft(c *gin.Context) {
	if !h.canManage(c, c.Param("id")) {
		return
	}

	draft, err := h.postService.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Draft published", draft)
}

func (h *PostHandler) UnpublishDraft(c *gin.Context) {
	if !h.canManage(c, c.Param("id")) {
		return
	}

	draft, err := h.postService.Unpublish(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Draft unpublished", draft)
}

// canManage lets the post's creator or an admin through. It writes the
// response itself when it refuses.
func (h *PostHandler) canManage(c *gin.Context, draftID string) bool {
	actor := middleware.Actor(c)
	if actor.IsAdmin {
		return true
	}

	draft, err := h.postService.GetDraft(c.Request.Context(), draftID)
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return false
	}
	if !actor.CanManage(draft.Meta.CreatedBy) {
		h.Helper.SendErrorFromErr(c, models.ErrorForbidden{Message: "only the post's creator or an admin may change publication"})
		return false
	}
	return true
}
