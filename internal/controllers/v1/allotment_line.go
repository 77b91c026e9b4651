package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/licensedesk/backend/internal/httputil"
	"github.com/licensedesk/backend/internal/models"
)

// RegisterAllotmentLineRoutes registers the routes for allotment lines with
// the RouterGroup that is passed.
func RegisterAllotmentLineRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsAllotmentLineList)
		r.GET("", GetAllotmentLines)
	}

	// Allotment line with ID
	{
		r.OPTIONS("/:id", OptionsAllotmentLineDetail)
		r.GET("/:id", GetAllotmentLine)
		r.DELETE("/:id", DeleteAllotmentLine)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allotment Lines
// @Success		204
// @Router			/v1/allotment-lines [options]
func OptionsAllotmentLineList(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allotment Lines
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/allotment-lines/{id} [options]
func OptionsAllotmentLineDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.AllotmentLine{}, httputil.OptionsGetDelete)
}

// @Summary		Get allotment lines
// @Description	Returns a list of allotment lines
// @Tags			Allotment Lines
// @Produce		json
// @Success		200			{object}	AllotmentLineListResponse
// @Failure		400			{object}	AllotmentLineListResponse
// @Failure		500			{object}	AllotmentLineListResponse
// @Router			/v1/allotment-lines [get]
// @Param			item		query	string	false	"Filter by import item ID"
// @Param			allotment	query	string	false	"Filter by allotment ID"
// @Param			offset		query	uint	false	"The offset of the first allotment line returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of allotment lines to return. Defaults to 50."
func GetAllotmentLines(c *gin.Context) {
	var filter AllotmentLineQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	model, err := filter.model()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllotmentLineListResponse{
			Error: &s,
		})
		return
	}

	q := models.DB.
		Order("created_at ASC").
		Where(&model, queryFields...)

	q = q.Offset(int(filter.Offset))
	limit := limit(setFields, filter.Limit)
	q = q.Limit(limit)

	var lines []models.AllotmentLine
	err = q.Find(&lines).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllotmentLineListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllotmentLineListResponse{
			Error: &e,
		})
		return
	}

	data := make([]AllotmentLine, 0)
	for _, line := range lines {
		data = append(data, newAllotmentLine(c, line))
	}

	c.JSON(http.StatusOK, AllotmentLineListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get allotment line
// @Description	Returns a specific allotment line
// @Tags			Allotment Lines
// @Produce		json
// @Success		200	{object}	AllotmentLineResponse
// @Failure		400	{object}	AllotmentLineResponse
// @Failure		404	{object}	AllotmentLineResponse
// @Failure		500	{object}	AllotmentLineResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/allotment-lines/{id} [get]
func GetAllotmentLine(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllotmentLineResponse{
			Error: &s,
		})
		return
	}

	var line models.AllotmentLine
	err = models.DB.First(&line, "id = ?", uri.ID.UUID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllotmentLineResponse{
			Error: &s,
		})
		return
	}

	data := newAllotmentLine(c, line)
	c.JSON(http.StatusOK, AllotmentLineResponse{Data: &data})
}

// @Summary		Delete allotment line
// @Description	Deletes an allotment line and adds its quantity and CIF value back to the balance of the import item
// @Tags			Allotment Lines
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		409	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/allotment-lines/{id} [delete]
func DeleteAllotmentLine(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	_, err = engine(c).Remove(c.Request.Context(), uri.ID.UUID)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
