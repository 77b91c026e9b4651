package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/licensedesk/backend/internal/httputil"
	"github.com/licensedesk/backend/internal/importer"
	"github.com/licensedesk/backend/internal/ledger"
	"github.com/licensedesk/backend/internal/models"
	"github.com/ryanuber/go-glob"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// RegisterImportItemRoutes registers the routes for import items with
// the RouterGroup that is passed.
func RegisterImportItemRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsImportItemList)
		r.GET("", GetImportItems)
		r.POST("", CreateImportItems)
		r.OPTIONS("/import", OptionsImportItemImport)
		r.POST("/import", ImportImportItems)
	}

	// Import item with ID
	{
		r.OPTIONS("/:id", OptionsImportItemDetail)
		r.GET("/:id", GetImportItem)
		r.PATCH("/:id", UpdateImportItem)
		r.DELETE("/:id", DeleteImportItem)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Import Items
// @Success		204
// @Router			/v1/import-items [options]
func OptionsImportItemList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Import Items
// @Success		204
// @Router			/v1/import-items/import [options]
func OptionsImportItemImport(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Import Items
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/import-items/{id} [options]
func OptionsImportItemDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.ImportItem{}, httputil.OptionsGetPatchDelete)
}

// @Summary		Create import items
// @Description	Creates new import items. The balance of a new item is its full entitlement.
// @Tags			Import Items
// @Produce		json
// @Success		201		{object}	ImportItemCreateResponse
// @Failure		400		{object}	ImportItemCreateResponse
// @Failure		404		{object}	ImportItemCreateResponse
// @Failure		500		{object}	ImportItemCreateResponse
// @Param			items	body		[]ImportItemEditable	true	"Import items"
// @Router			/v1/import-items [post]
func CreateImportItems(c *gin.Context) {
	var editables []ImportItemEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ImportItemCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := ImportItemCreateResponse{}

	for _, editable := range editables {
		item := editable.model()

		err = models.DB.Create(&item).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newImportItem(c, item)
		r.Data = append(r.Data, ImportItemResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Import import items
// @Description	Creates the import items of a license from an uploaded spreadsheet (.xlsx, .xls or .csv).
// @Description	The first row must be a header with at least the serial number, quantity and CIF value columns.
// @Description	Either all rows are imported or none.
// @Tags			Import Items
// @Accept			multipart/form-data
// @Produce		json
// @Success		201		{object}	ImportItemImportResponse
// @Failure		400		{object}	ImportItemImportResponse
// @Failure		404		{object}	ImportItemImportResponse
// @Failure		500		{object}	ImportItemImportResponse
// @Param			file	formData	file	true	"File to import"
// @Param			license	query		string	true	"ID of the license to import the items for"
// @Router			/v1/import-items/import [post]
func ImportImportItems(c *gin.Context) {
	licenseID, err := httputil.UUIDFromString(c.Query("license"))
	if err == nil && licenseID == uuid.Nil {
		err = errLicenseParameter
	}
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ImportItemImportResponse{Error: &s})
		return
	}

	var license models.License
	err = models.DB.First(&license, "id = ?", licenseID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ImportItemImportResponse{Error: &s})
		return
	}

	f, suffix, err := httputil.UploadedFile(c, importer.Suffixes...)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ImportItemImportResponse{Error: &s})
		return
	}
	defer f.Close()

	rows, err := importer.Read(f, suffix)
	if err == nil {
		var parsed []importer.Row
		parsed, err = importer.Items(license.ID, rows)
		if err == nil {
			importItems(c, parsed)
			return
		}
	}

	s := err.Error()
	c.JSON(http.StatusBadRequest, ImportItemImportResponse{Error: &s})
}

// importItems creates the parsed import items in one transaction. If any row is
// rejected, nothing is created.
func importItems(c *gin.Context, rows []importer.Row) {
	httpStatus := http.StatusCreated
	r := ImportItemImportResponse{}
	created := make([]int, 0, len(rows))
	items := make([]*ImportItemResponse, 0, len(rows))

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			err := row.Err
			if err == nil {
				err = tx.Create(&row.Item).Error
			}

			if err != nil {
				s := fmt.Sprintf("row %d: %s", row.Number, err.Error())
				items = append(items, &ImportItemResponse{Error: &s})
				if st := status(err); st > httpStatus {
					httpStatus = st
				}
				continue
			}

			data := newImportItem(c, row.Item)
			created = append(created, len(items))
			items = append(items, &ImportItemResponse{Data: &data})
		}

		if len(created) != len(rows) {
			return errImportRowsRejected
		}

		return nil
	})

	if err != nil {
		// Created items have been rolled back
		for _, i := range created {
			items[i].Data = nil
		}

		if httpStatus == http.StatusCreated {
			httpStatus = status(err)
		}

		s := err.Error()
		r.Error = &s
	}

	for _, item := range items {
		r.Data = append(r.Data, *item)
	}

	c.JSON(httpStatus, r)
}

// @Summary		Get import items
// @Description	Returns a list of import items
// @Tags			Import Items
// @Produce		json
// @Success		200	{object}	ImportItemListResponse
// @Failure		400	{object}	ImportItemListResponse
// @Failure		500	{object}	ImportItemListResponse
// @Router			/v1/import-items [get]
// @Param			license	query	string	false	"Filter by license ID"
// @Param			unit	query	string	false	"Filter by unit"
// @Param			hsCode	query	string	false	"Filter by HS code, * matches any characters"
// @Param			search	query	string	false	"Search for this text in description and HS code"
// @Param			offset	query	uint	false	"The offset of the first import item returned. Defaults to 0."
// @Param			limit	query	int		false	"Maximum number of import items to return. Defaults to 50."
func GetImportItems(c *gin.Context) {
	var filter ImportItemQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	model, err := filter.model()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ImportItemListResponse{
			Error: &s,
		})
		return
	}

	q := models.DB.
		Order("license_id ASC, serial_number ASC").
		Where(&model, queryFields...)

	q = searchFilter(models.DB, q, filter.Search, "description", "hs_code")

	// HS codes without wildcard are matched exactly
	pattern := strings.TrimSpace(filter.HSCode)
	wildcard := strings.Contains(pattern, "*")
	if slices.Contains(setFields, "HSCode") && !wildcard {
		q = q.Where("hs_code = ?", pattern)
	}

	limit := limit(setFields, filter.Limit)

	var items []models.ImportItem
	var count int64

	if wildcard {
		err = q.Find(&items).Error
		if err == nil {
			items, count = page(matchHSCode(items, pattern), filter.Offset, limit)
		}
	} else {
		err = q.Offset(int(filter.Offset)).Limit(limit).Find(&items).Error
		if err == nil {
			err = q.Limit(-1).Offset(-1).Count(&count).Error
		}
	}

	if err != nil {
		s := err.Error()
		c.JSON(status(err), ImportItemListResponse{
			Error: &s,
		})
		return
	}

	data := make([]ImportItem, 0)
	for _, item := range items {
		data = append(data, newImportItem(c, item))
	}

	c.JSON(http.StatusOK, ImportItemListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// matchHSCode returns the items where the HS code matches the glob pattern.
func matchHSCode(items []models.ImportItem, pattern string) []models.ImportItem {
	matched := make([]models.ImportItem, 0, len(items))
	for _, item := range items {
		if glob.Glob(pattern, item.HSCode) {
			matched = append(matched, item)
		}
	}

	return matched
}

// page returns the items for offset and limit and the total number of items.
// A negative limit returns all items after the offset.
func page[T any](items []T, offset uint, limit int) ([]T, int64) {
	total := int64(len(items))
	if int(offset) >= len(items) {
		return []T{}, total
	}

	items = items[offset:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}

	return items, total
}

// @Summary		Get import item
// @Description	Returns a specific import item
// @Tags			Import Items
// @Produce		json
// @Success		200	{object}	ImportItemResponse
// @Failure		400	{object}	ImportItemResponse
// @Failure		404	{object}	ImportItemResponse
// @Failure		500	{object}	ImportItemResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/import-items/{id} [get]
func GetImportItem(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ImportItemResponse{
			Error: &s,
		})
		return
	}

	var item models.ImportItem
	err = models.DB.First(&item, "id = ?", uri.ID.UUID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ImportItemResponse{
			Error: &s,
		})
		return
	}

	data := newImportItem(c, item)
	c.JSON(http.StatusOK, ImportItemResponse{Data: &data})
}

// @Summary		Update import item
// @Description	Update an existing import item. Only values to be updated need to be specified.
// @Description	Quantity and CIF value can only be changed while no allotment line references the item,
// @Description	the balance is reset to the new entitlement.
// @Tags			Import Items
// @Accept			json
// @Produce		json
// @Success		200		{object}	ImportItemResponse
// @Failure		400		{object}	ImportItemResponse
// @Failure		404		{object}	ImportItemResponse
// @Failure		500		{object}	ImportItemResponse
// @Param			id		path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			item	body		ImportItemEditable	true	"Import item"
// @Router			/v1/import-items/{id} [patch]
func UpdateImportItem(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ImportItemResponse{
			Error: &s,
		})
		return
	}

	var item models.ImportItem
	err = models.DB.First(&item, "id = ?", uri.ID.UUID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ImportItemResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, ImportItemEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ImportItemResponse{
			Error: &s,
		})
		return
	}

	var data ImportItemEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ImportItemResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		update := data.model()

		if slices.Contains(updateFields, any("LicenseID")) {
			err := tx.First(&models.License{}, "id = ?", update.LicenseID).Error
			if err != nil {
				return err
			}
		}

		var quantity, value decimal.NullDecimal
		fields := make([]any, 0, len(updateFields))
		for _, field := range updateFields {
			switch field {
			case "Quantity":
				quantity = decimal.NewNullDecimal(update.Quantity)
			case "CIFValue":
				value = decimal.NewNullDecimal(update.CIFValue)
			default:
				fields = append(fields, field)
			}
		}

		// The full entitlement is available again
		if quantity.Valid || value.Valid {
			_, err := ledger.SetEntitlement(tx, item.ID, quantity, value)
			if err != nil {
				return err
			}
		}

		if len(fields) == 0 {
			return nil
		}

		return tx.Model(&item).Select("", fields...).Updates(update).Error
	})
	if err == nil {
		err = models.DB.First(&item, "id = ?", item.ID).Error
	}
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ImportItemResponse{
			Error: &s,
		})
		return
	}

	r := newImportItem(c, item)
	c.JSON(http.StatusOK, ImportItemResponse{Data: &r})
}

// @Summary		Delete import item
// @Description	Deletes an import item. Items referenced by allotment lines cannot be deleted.
// @Tags			Import Items
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/import-items/{id} [delete]
func DeleteImportItem(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var item models.ImportItem
	err = models.DB.First(&item, "id = ?", uri.ID.UUID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&item).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
