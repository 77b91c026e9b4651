package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/licensedesk/backend/internal/httputil"
	"github.com/licensedesk/backend/internal/ledger"
	"github.com/licensedesk/backend/internal/models"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// RegisterAllotmentRoutes registers the routes for allotments with
// the RouterGroup that is passed.
func RegisterAllotmentRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsAllotmentList)
		r.GET("", GetAllotments)
		r.POST("", CreateAllotments)
	}

	// Allotment with ID
	{
		r.OPTIONS("/:id", OptionsAllotmentDetail)
		r.GET("/:id", GetAllotment)
		r.PATCH("/:id", UpdateAllotment)
		r.DELETE("/:id", DeleteAllotment)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allotments
// @Success		204
// @Router			/v1/allotments [options]
func OptionsAllotmentList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allotments
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/allotments/{id} [options]
func OptionsAllotmentDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.Allotment{}, httputil.OptionsGetPatchDelete)
}

// @Summary		Create allotments
// @Description	Creates new allotments. If the unit price is not set, it is derived from the required value and quantity.
// @Tags			Allotments
// @Produce		json
// @Success		201			{object}	AllotmentCreateResponse
// @Failure		400			{object}	AllotmentCreateResponse
// @Failure		500			{object}	AllotmentCreateResponse
// @Param			allotments	body		[]AllotmentEditable	true	"Allotments"
// @Router			/v1/allotments [post]
func CreateAllotments(c *gin.Context) {
	var editables []AllotmentEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllotmentCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := AllotmentCreateResponse{}

	for _, editable := range editables {
		allotment := editable.model()

		err = models.DB.Create(&allotment).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newAllotment(c, allotment)
		r.Data = append(r.Data, AllotmentResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get allotments
// @Description	Returns a list of allotments with their allotted totals
// @Tags			Allotments
// @Produce		json
// @Success		200	{object}	AllotmentListResponse
// @Failure		400	{object}	AllotmentListResponse
// @Failure		500	{object}	AllotmentListResponse
// @Router			/v1/allotments [get]
// @Param			company	query	string	false	"Filter by company"
// @Param			goods	query	string	false	"Filter by goods"
// @Param			search	query	string	false	"Search for this text in company, goods and note"
// @Param			offset	query	uint	false	"The offset of the first allotment returned. Defaults to 0."
// @Param			limit	query	int		false	"Maximum number of allotments to return. Defaults to 50."
func GetAllotments(c *gin.Context) {
	var filter AllotmentQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	_, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.Order("created_at DESC")
	q = textFilter(q, setFields, "Company", "company", filter.Company)
	q = textFilter(q, setFields, "Goods", "goods", filter.Goods)
	q = searchFilter(models.DB, q, filter.Search, "company", "goods", "note")

	q = q.Offset(int(filter.Offset))
	limit := limit(setFields, filter.Limit)
	q = q.Limit(limit)

	var allotments []models.Allotment
	err := q.Find(&allotments).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllotmentListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllotmentListResponse{
			Error: &e,
		})
		return
	}

	data := make([]Allotment, 0)
	for _, allotment := range allotments {
		allotment, err = allotment.WithCalculations(models.DB)
		if err != nil {
			e := err.Error()
			c.JSON(status(err), AllotmentListResponse{
				Error: &e,
			})
			return
		}

		data = append(data, newAllotment(c, allotment))
	}

	c.JSON(http.StatusOK, AllotmentListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// getAllotment returns the allotment for the ID in the URI with its allotted totals.
func getAllotment(c *gin.Context) (models.Allotment, error) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		return models.Allotment{}, err
	}

	var allotment models.Allotment
	err = models.DB.First(&allotment, "id = ?", uri.ID.UUID).Error
	if err != nil {
		return models.Allotment{}, err
	}

	return allotment.WithCalculations(models.DB)
}

// @Summary		Get allotment
// @Description	Returns a specific allotment with its allotted totals
// @Tags			Allotments
// @Produce		json
// @Success		200	{object}	AllotmentResponse
// @Failure		400	{object}	AllotmentResponse
// @Failure		404	{object}	AllotmentResponse
// @Failure		500	{object}	AllotmentResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/allotments/{id} [get]
func GetAllotment(c *gin.Context) {
	allotment, err := getAllotment(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllotmentResponse{
			Error: &s,
		})
		return
	}

	data := newAllotment(c, allotment)
	c.JSON(http.StatusOK, AllotmentResponse{Data: &data})
}

// @Summary		Update allotment
// @Description	Update an existing allotment. Only values to be updated need to be specified.
// @Description	The unit price cannot be changed while the allotment has lines.
// @Tags			Allotments
// @Accept			json
// @Produce		json
// @Success		200			{object}	AllotmentResponse
// @Failure		400			{object}	AllotmentResponse
// @Failure		404			{object}	AllotmentResponse
// @Failure		409			{object}	AllotmentResponse
// @Failure		500			{object}	AllotmentResponse
// @Param			id			path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			allotment	body		AllotmentEditable	true	"Allotment"
// @Router			/v1/allotments/{id} [patch]
func UpdateAllotment(c *gin.Context) {
	allotment, err := getAllotment(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllotmentResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, AllotmentEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllotmentResponse{
			Error: &s,
		})
		return
	}

	var data AllotmentEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllotmentResponse{
			Error: &s,
		})
		return
	}

	update := data.model()
	if slices.Contains(updateFields, any("UnitPrice")) && !update.UnitPrice.Equal(allotment.UnitPrice) {
		var hasLines bool
		hasLines, err = allotment.HasLines(models.DB)
		if err == nil && hasLines {
			err = errAllotmentPriceLocked
		}
	}

	// Validate the allotment as it will be after the update. The version
	// guard below rejects the update if lines changed in the meantime.
	merged := merge(allotment, update, updateFields)
	if err == nil {
		err = merged.Validate()
	}

	if err == nil && ledger.CheckCeiling(merged, allotment.AllottedQuantity, allotment.AllottedValue, tolerance(c)) != nil {
		err = fmt.Errorf("%w: %s is allotted for a value of %s", errRequiredBelowAllotted, allotment.AllottedQuantity, allotment.AllottedValue)
	}

	if err == nil {
		// Bumping the version makes concurrent allotments decide again
		// against the new required figures
		update.Version = allotment.Version + 1
		updateFields = append(updateFields, "Version")

		err = models.DB.Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&models.Allotment{}).
				Where("id = ? AND version = ?", allotment.ID, allotment.Version).
				Select("", updateFields...).
				Updates(update)

			if result.Error != nil {
				return result.Error
			}

			if result.RowsAffected == 0 {
				return ledger.ErrConcurrencyConflict
			}

			return nil
		})
	}

	if err == nil {
		allotment, err = getAllotment(c)
	}

	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllotmentResponse{
			Error: &s,
		})
		return
	}

	r := newAllotment(c, allotment)
	c.JSON(http.StatusOK, AllotmentResponse{Data: &r})
}

// merge returns the allotment with the updated fields set.
func merge(allotment, update models.Allotment, updateFields []any) models.Allotment {
	set := func(field string) bool { return slices.Contains(updateFields, any(field)) }

	if set("RequiredQuantity") {
		allotment.RequiredQuantity = update.RequiredQuantity
	}

	if set("RequiredValue") {
		allotment.RequiredValue = update.RequiredValue
	}

	if set("UnitPrice") {
		allotment.UnitPrice = update.UnitPrice
	}

	if set("ExchangeRate") {
		allotment.ExchangeRate = update.ExchangeRate
	}

	return allotment
}

// @Summary		Delete allotment
// @Description	Deletes an allotment. All its lines are removed and their quantity and value are added back to the import items.
// @Tags			Allotments
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		409	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/allotments/{id} [delete]
func DeleteAllotment(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = engine(c).RemoveAllotment(c.Request.Context(), uri.ID.UUID)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
