package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/licensedesk/backend/internal/httputil"
	"github.com/licensedesk/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RegisterLicenseRoutes registers the routes for licenses with
// the RouterGroup that is passed.
func RegisterLicenseRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsLicenseList)
		r.GET("", GetLicenses)
		r.POST("", CreateLicenses)
	}

	// License with ID
	{
		r.OPTIONS("/:id", OptionsLicenseDetail)
		r.GET("/:id", GetLicense)
		r.PATCH("/:id", UpdateLicense)
		r.DELETE("/:id", DeleteLicense)
		r.OPTIONS("/:id/ledger", OptionsLicenseLedger)
		r.GET("/:id/ledger", GetLicenseLedger)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Licenses
// @Success		204
// @Router			/v1/licenses [options]
func OptionsLicenseList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Licenses
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/licenses/{id} [options]
func OptionsLicenseDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.License{}, httputil.OptionsGetPatchDelete)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Licenses
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/licenses/{id}/ledger [options]
func OptionsLicenseLedger(c *gin.Context) {
	resourceOptionsDetail(c, models.License{}, httputil.OptionsGet)
}

// @Summary		Create licenses
// @Description	Creates new licenses
// @Tags			Licenses
// @Produce		json
// @Success		201			{object}	LicenseCreateResponse
// @Failure		400			{object}	LicenseCreateResponse
// @Failure		500			{object}	LicenseCreateResponse
// @Param			licenses	body		[]LicenseEditable	true	"Licenses"
// @Router			/v1/licenses [post]
func CreateLicenses(c *gin.Context) {
	var editables []LicenseEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), LicenseCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := LicenseCreateResponse{}

	for _, editable := range editables {
		license := editable.model()

		err = models.DB.Create(&license).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newLicense(c, license)
		r.Data = append(r.Data, LicenseResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get licenses
// @Description	Returns a list of licenses
// @Tags			Licenses
// @Produce		json
// @Success		200	{object}	LicenseListResponse
// @Failure		400	{object}	LicenseListResponse
// @Failure		500	{object}	LicenseListResponse
// @Router			/v1/licenses [get]
// @Param			number		query	string	false	"Filter by license number"
// @Param			kind		query	string	false	"Filter by kind"
// @Param			port		query	string	false	"Filter by port of registration"
// @Param			exporter	query	string	false	"Filter by exporter"
// @Param			search		query	string	false	"Search for this text in number, exporter and note"
// @Param			offset		query	uint	false	"The offset of the first license returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of licenses to return. Defaults to 50."
func GetLicenses(c *gin.Context) {
	var filter LicenseQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("number ASC").
		Where(filter.model(), queryFields...)

	q = textFilter(q, setFields, "Number", "number", filter.Number)
	q = textFilter(q, setFields, "Exporter", "exporter", filter.Exporter)
	q = searchFilter(models.DB, q, filter.Search, "number", "exporter", "note")

	q = q.Offset(int(filter.Offset))
	limit := limit(setFields, filter.Limit)
	q = q.Limit(limit)

	var licenses []models.License
	err := q.Find(&licenses).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), LicenseListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), LicenseListResponse{
			Error: &e,
		})
		return
	}

	data := make([]License, 0)
	for _, license := range licenses {
		data = append(data, newLicense(c, license))
	}

	c.JSON(http.StatusOK, LicenseListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get license
// @Description	Returns a specific license
// @Tags			Licenses
// @Produce		json
// @Success		200	{object}	LicenseResponse
// @Failure		400	{object}	LicenseResponse
// @Failure		404	{object}	LicenseResponse
// @Failure		500	{object}	LicenseResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/licenses/{id} [get]
func GetLicense(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), LicenseResponse{
			Error: &s,
		})
		return
	}

	var license models.License
	err = models.DB.First(&license, "id = ?", uri.ID.UUID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), LicenseResponse{
			Error: &s,
		})
		return
	}

	data := newLicense(c, license)
	c.JSON(http.StatusOK, LicenseResponse{Data: &data})
}

// @Summary		Update license
// @Description	Update an existing license. Only values to be updated need to be specified.
// @Tags			Licenses
// @Accept			json
// @Produce		json
// @Success		200		{object}	LicenseResponse
// @Failure		400		{object}	LicenseResponse
// @Failure		404		{object}	LicenseResponse
// @Failure		500		{object}	LicenseResponse
// @Param			id		path		URIID			true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			license	body		LicenseEditable	true	"License"
// @Router			/v1/licenses/{id} [patch]
func UpdateLicense(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), LicenseResponse{
			Error: &s,
		})
		return
	}

	var license models.License
	err = models.DB.First(&license, "id = ?", uri.ID.UUID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), LicenseResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, LicenseEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), LicenseResponse{
			Error: &s,
		})
		return
	}

	var data LicenseEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), LicenseResponse{
			Error: &s,
		})
		return
	}

	// The license is validated as it is after the update, invalid
	// updates are rolled back
	updated := license
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&updated).Select("", updateFields...).Updates(data.model()).Error
		if err != nil {
			return err
		}

		err = tx.First(&updated, "id = ?", license.ID).Error
		if err != nil {
			return err
		}

		return updated.Validate()
	})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), LicenseResponse{
			Error: &s,
		})
		return
	}

	r := newLicense(c, updated)
	c.JSON(http.StatusOK, LicenseResponse{Data: &r})
}

// @Summary		Delete license
// @Description	Deletes a license. Licenses with import items cannot be deleted.
// @Tags			Licenses
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/licenses/{id} [delete]
func DeleteLicense(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var license models.License
	err = models.DB.First(&license, "id = ?", uri.ID.UUID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&license).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// @Summary		Get license ledger
// @Description	Returns the entitlement, allotted amounts and balance of every import item of a license
// @Tags			Licenses
// @Produce		json
// @Success		200	{object}	LicenseLedgerResponse
// @Failure		400	{object}	LicenseLedgerResponse
// @Failure		404	{object}	LicenseLedgerResponse
// @Failure		500	{object}	LicenseLedgerResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/licenses/{id}/ledger [get]
func GetLicenseLedger(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), LicenseLedgerResponse{
			Error: &s,
		})
		return
	}

	var license models.License
	err = models.DB.First(&license, "id = ?", uri.ID.UUID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), LicenseLedgerResponse{
			Error: &s,
		})
		return
	}

	var items []models.ImportItem
	err = models.DB.Where("license_id = ?", license.ID).Order("serial_number ASC").Find(&items).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), LicenseLedgerResponse{
			Error: &s,
		})
		return
	}

	ledger := LicenseLedger{
		License:          newLicense(c, license),
		Items:            make([]LedgerItem, 0, len(items)),
		CIFValue:         decimal.Zero,
		AllottedCIFValue: decimal.Zero,
		BalanceCIFValue:  decimal.Zero,
	}

	for _, item := range items {
		var lines int64
		err = models.DB.Model(&models.AllotmentLine{}).Where("item_id = ?", item.ID).Count(&lines).Error
		if err != nil {
			s := err.Error()
			c.JSON(status(err), LicenseLedgerResponse{
				Error: &s,
			})
			return
		}

		ledger.Items = append(ledger.Items, LedgerItem{
			ID:               item.ID,
			SerialNumber:     item.SerialNumber,
			Description:      item.Description,
			HSCode:           item.HSCode,
			Unit:             item.Unit,
			Quantity:         item.Quantity,
			CIFValue:         item.CIFValue,
			AllottedQuantity: item.AllottedQuantity(),
			AllottedCIFValue: item.AllottedCIFValue(),
			BalanceQuantity:  item.BalanceQuantity,
			BalanceCIFValue:  item.BalanceCIFValue,
			Lines:            lines,
		})

		ledger.CIFValue = ledger.CIFValue.Add(item.CIFValue)
		ledger.AllottedCIFValue = ledger.AllottedCIFValue.Add(item.AllottedCIFValue())
		ledger.BalanceCIFValue = ledger.BalanceCIFValue.Add(item.BalanceCIFValue)
	}

	c.JSON(http.StatusOK, LicenseLedgerResponse{Data: &ledger})
}
