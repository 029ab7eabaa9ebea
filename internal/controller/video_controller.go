package controller

import (
	"cuerpofit_backend/internal/model"
	"cuerpofit_backend/internal/service"
	"cuerpofit_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type VideoController struct {
	Questionnaire *service.QuestionnaireService
	Transcode     *service.TranscodeService
	Storage       *service.StorageService
}

func NewVideoController(questionnaire *service.QuestionnaireService, transcode *service.TranscodeService, storage *service.StorageService) *VideoController {
	return &VideoController{
		Questionnaire: questionnaire,
		Transcode:     transcode,
		Storage:       storage,
	}
}

// Upload godoc
// @Summary Upload a video for a file question
// @Description Stages the file and starts the compression pipeline when
// @Description the question has compression enabled; otherwise attaches
// @Description the file as-is.
// @Tags video
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session id"
// @Param questionId formData string false "File question id (defaults to video_upload)"
// @Param file formData file true "The video file"
// @Success 200 {object} util.Response{data=service.TranscodeJobView}
// @Failure 400 {object} util.Response
// @Router /api/intake/sessions/{id}/video [post]
func (c *VideoController) Upload(ctx *gin.Context) {
	sessionID := ctx.Param("id")
	questionID := ctx.PostForm("questionId")
	if questionID == "" {
		questionID = "video_upload"
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "missing file part")
		return
	}

	question := c.question(questionID)
	if question == nil {
		util.BadRequest(ctx, "unknown question")
		return
	}

	staged, err := c.Storage.StageUpload(sessionID, file)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	contentType := file.Header.Get("Content-Type")

	if !question.EnableVideoCompression {
		view, err := c.Questionnaire.AttachFiles(ctx.Request.Context(), sessionID, questionID, []model.FileRef{{
			Name:        file.Filename,
			Size:        file.Size,
			Path:        staged,
			ContentType: contentType,
		}})
		if err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.Success(ctx, view)
		return
	}

	job, err := c.Transcode.Start(sessionID, questionID, staged, file.Filename, contentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, job)
}

// Status godoc
// @Summary Compression status for a file question
// @Tags video
// @Produce json
// @Param id path string true "Session id"
// @Param questionId query string false "File question id (defaults to video_upload)"
// @Success 200 {object} util.Response{data=service.TranscodeJobView}
// @Failure 404 {object} util.Response
// @Router /api/intake/sessions/{id}/video/status [get]
func (c *VideoController) Status(ctx *gin.Context) {
	job, err := c.Transcode.Status(ctx.Param("id"), c.questionIDFromQuery(ctx))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, job)
}

// Cancel godoc
// @Summary Cancel an in-flight compression
// @Tags video
// @Produce json
// @Param id path string true "Session id"
// @Param questionId query string false "File question id (defaults to video_upload)"
// @Success 200 {object} util.Response{data=service.TranscodeJobView}
// @Failure 404 {object} util.Response
// @Router /api/intake/sessions/{id}/video/cancel [post]
func (c *VideoController) Cancel(ctx *gin.Context) {
	job, err := c.Transcode.Cancel(ctx.Param("id"), c.questionIDFromQuery(ctx))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, job)
}

func (c *VideoController) questionIDFromQuery(ctx *gin.Context) string {
	questionID := ctx.Query("questionId")
	if questionID == "" {
		questionID = "video_upload"
	}
	return questionID
}

func (c *VideoController) question(questionID string) *model.Question {
	for _, q := range c.Questionnaire.Questions() {
		if q.ID == questionID && q.Type == model.QuestionFile {
			return &q
		}
	}
	return nil
}
