package handlers

import (
	"novabyte-blog/helper"
	"novabyte-blog/middleware"
	"novabyte-blog/models"
	"novabyte-blog/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
	Helper      *helper.HTTPHelper
}

func NewAuthHandler(authService services.AuthService, h *helper.HTTPHelper) *AuthHandler {
	return &AuthHandler{authService: authService, Helper: h}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	person, err := h.authService.SignUp(c.Request.Context(), models.SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendCreated(c, "Sign up success", person)
}

func (h *AuthHandler) LogIn(c *gin.Context) {
	var req models.LogInRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	response, err := h.authService.LogIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Login success", response)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	response, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Token refreshed", response)
}

func (h *AuthHandler) LogOut(c *gin.Context) {
	if err := h.authService.LogOut(c.Request.Context(), middleware.PersonID(c)); err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Logout success", h.Helper.EmptyJsonMap())
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	person, err := h.authService.GetPerson(c.Request.Context(), middleware.PersonID(c))
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Profile loaded", person)
}

func (h *AuthHandler) GetPersons(c *gin.Context) {
	persons, err := h.authService.ListPersons(c.Request.Context())
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Persons loaded", persons)
}

func (h *AuthHandler) GetPerson(c *gin.Context) {
	person, err := h.authService.GetPerson(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Helper.SendErrorFromErr(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Person loaded", person)
}
