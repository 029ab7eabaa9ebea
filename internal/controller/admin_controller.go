package controller

import (
	"errors"
	"strconv"

	"cuerpofit_backend/internal/repository"
	"cuerpofit_backend/internal/service"
	"cuerpofit_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminController struct {
	Auth         *service.AuthService
	Applications *repository.ApplicationRepository
}

func NewAdminController(auth *service.AuthService, applications *repository.ApplicationRepository) *AdminController {
	return &AdminController{Auth: auth, Applications: applications}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Admin login
// @Tags admin
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 200 {object} util.Response{data=object}
// @Failure 401 {object} util.Response
// @Router /api/admin/login [post]
func (c *AdminController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, user, err := c.Auth.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, util.ErrInvalidCredentials) {
			util.Unauthorized(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"token": token,
		"user":  gin.H{"id": user.ID, "email": user.Email, "name": user.Name},
	})
}

// ListApplications godoc
// @Summary Submitted applications, newest first
// @Tags admin
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 20)"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Security ApiKeyAuth
// @Router /api/admin/applications [get]
func (c *AdminController) ListApplications(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	apps, total, err := c.Applications.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: apps, Total: total, Page: page, Limit: limit})
}

// GetApplication godoc
// @Summary One application by id
// @Tags admin
// @Produce json
// @Param id path int true "Application id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security ApiKeyAuth
// @Router /api/admin/applications/{id} [get]
func (c *AdminController) GetApplication(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	app, err := c.Applications.FindByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, app)
}
