package controller

import (
	"cuerpofit_backend/internal/service"
	"cuerpofit_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CountryController struct {
	Countries *service.CountryService
}

func NewCountryController(countries *service.CountryService) *CountryController {
	return &CountryController{Countries: countries}
}

// List godoc
// @Summary Country options for the country question
// @Tags countries
// @Produce json
// @Success 200 {object} util.Response{data=[]service.SelectOption}
// @Router /api/countries [get]
func (c *CountryController) List(ctx *gin.Context) {
	util.Success(ctx, c.Countries.Countries(ctx.Request.Context()))
}

// CallingCodes godoc
// @Summary Calling-code options for the phone question
// @Tags countries
// @Produce json
// @Success 200 {object} util.Response{data=[]service.SelectOption}
// @Router /api/calling-codes [get]
func (c *CountryController) CallingCodes(ctx *gin.Context) {
	util.Success(ctx, c.Countries.CallingCodes(ctx.Request.Context()))
}
