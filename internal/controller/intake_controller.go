package controller

import (
	"errors"

	"cuerpofit_backend/internal/service"
	"cuerpofit_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type IntakeController struct {
	Questionnaire *service.QuestionnaireService
	AllowAutofill bool
}

func NewIntakeController(questionnaire *service.QuestionnaireService, allowAutofill bool) *IntakeController {
	return &IntakeController{
		Questionnaire: questionnaire,
		AllowAutofill: allowAutofill,
	}
}

type createSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// CreateSession godoc
// @Summary Start or resume a questionnaire session
// @Tags intake
// @Accept json
// @Produce json
// @Param body body createSessionRequest false "Optional session id to resume"
// @Success 201 {object} util.Response{data=service.SessionView}
// @Router /api/intake/sessions [post]
func (c *IntakeController) CreateSession(ctx *gin.Context) {
	var req createSessionRequest
	_ = ctx.ShouldBindJSON(&req)
	view := c.Questionnaire.CreateSession(ctx.Request.Context(), req.SessionID)
	util.Created(ctx, view)
}

// GetSession godoc
// @Summary Current session state
// @Tags intake
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 404 {object} util.Response
// @Router /api/intake/sessions/{id} [get]
func (c *IntakeController) GetSession(ctx *gin.Context) {
	view, err := c.Questionnaire.GetState(ctx.Param("id"))
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

type selectRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	OptionID   string `json:"optionId" binding:"required"`
}

// SelectAnswer godoc
// @Summary Select a single-choice option
// @Tags intake
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param body body selectRequest true "Question and option"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/intake/sessions/{id}/answers/select [post]
func (c *IntakeController) SelectAnswer(ctx *gin.Context) {
	var req selectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	view, err := c.Questionnaire.SelectOption(ctx.Request.Context(), ctx.Param("id"), req.QuestionID, req.OptionID)
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

type toggleRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	OptionID   string `json:"optionId" binding:"required"`
}

// ToggleAnswer godoc
// @Summary Toggle a multi-choice option
// @Tags intake
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param body body toggleRequest true "Question and option"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/intake/sessions/{id}/answers/toggle [post]
func (c *IntakeController) ToggleAnswer(ctx *gin.Context) {
	var req toggleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	view, err := c.Questionnaire.ToggleOption(ctx.Request.Context(), ctx.Param("id"), req.QuestionID, req.OptionID)
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

type textRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	SubFieldID string `json:"subFieldId"`
	Text       string `json:"text"`
}

// EditText godoc
// @Summary Edit a free-text answer (or one sub-field of a composite)
// @Tags intake
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param body body textRequest true "Question, optional sub-field and text"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/intake/sessions/{id}/answers/text [post]
func (c *IntakeController) EditText(ctx *gin.Context) {
	var req textRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	view, err := c.Questionnaire.EditText(ctx.Request.Context(), ctx.Param("id"), req.QuestionID, req.SubFieldID, req.Text)
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// RemoveAnswer godoc
// @Summary Remove a stored answer (used by file fields)
// @Tags intake
// @Produce json
// @Param id path string true "Session id"
// @Param questionId path string true "Question id"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/intake/sessions/{id}/answers/{questionId} [delete]
func (c *IntakeController) RemoveAnswer(ctx *gin.Context) {
	view, err := c.Questionnaire.RemoveFileAnswer(ctx.Request.Context(), ctx.Param("id"), ctx.Param("questionId"))
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Start godoc
// @Summary Dismiss the clarification pre-amble
// @Tags intake
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/intake/sessions/{id}/start [post]
func (c *IntakeController) Start(ctx *gin.Context) {
	view, err := c.Questionnaire.Start(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

type nextRequest struct {
	CaptchaToken string `json:"captchaToken"`
}

// Next godoc
// @Summary Advance to the next question (submits on the last one)
// @Tags intake
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param body body nextRequest false "Captcha token, needed on the final advance"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 409 {object} util.Response
// @Router /api/intake/sessions/{id}/next [post]
func (c *IntakeController) Next(ctx *gin.Context) {
	var req nextRequest
	_ = ctx.ShouldBindJSON(&req)
	view, err := c.Questionnaire.Next(ctx.Request.Context(), ctx.Param("id"), req.CaptchaToken)
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Previous godoc
// @Summary Step back one question
// @Tags intake
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/intake/sessions/{id}/previous [post]
func (c *IntakeController) Previous(ctx *gin.Context) {
	view, err := c.Questionnaire.Previous(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Autofill fills every question with synthetic answers. Only routed in
// debug mode.
func (c *IntakeController) Autofill(ctx *gin.Context) {
	if !c.AllowAutofill {
		util.NotFound(ctx)
		return
	}
	view, err := c.Questionnaire.Autofill(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

func (c *IntakeController) renderError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound), errors.Is(err, util.ErrJobNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrSessionCompleted), errors.Is(err, util.ErrSubmissionInFlight):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrUnknownQuestion), errors.Is(err, util.ErrUnknownOption):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
