package handlers

import (
	"novabyte-blog/helper"
	"novabyte-blog/middleware"
	"novabyte-blog/models"
	"novabyte-blog/services"

	"github.com/gin-gonic/gin"
)

type ImageHandler struct {
	imageService services.ImageService
	Helper       *helper.HTTPHelper
}

func NewImageHandler(imageService services.ImageService, h *helper.HTTPHelper) *ImageHandler {
	return &ImageHandler{imageService: imageService, Helper: h}
}

func (h *ImageHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.Helper.SendBadRequest(c, "multipart field \"file\" is required", h.Helper.EmptyJsonMap())
		return
	}
	if header.Size > services.MaxImageBytes {
		h.Helper.SendBadRequest(c, "image too large", h.Helper.EmptyJsonMap())
		return
	}

	file, err := header.Open()
	if err != nil {
		h.Helper.SendBadRequest(c, err.Error(), h.Helper.EmptyJsonMap())
		return
	}
	defer file.Close()

	url, err := h.imageService.Upload(c.Request.Context(), middleware.PersonID(c), file)
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendCreated(c, "Image uploaded", models.ImageResponse{URL: url})
}
