package v1

import (
	"fmt"

	ledger_uuid "github.com/licensedesk/backend/internal/uuid"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type URIID struct {
	ID ledger_uuid.UUID `uri:"id" binding:"required"` // The ID of the resource
}

type Pagination struct {
	Count  int   `json:"count" example:"25"`  // The amount of records returned in this response
	Offset uint  `json:"offset" example:"50"` // The offset for the first record returned
	Limit  int   `json:"limit" example:"25"`  // The maximum amount of resources to return for this request
	Total  int64 `json:"total" example:"827"` // The total number of resources matching the query
}

// limit returns the limit set in the query or the default of 50.
func limit(setFields []string, l int) int {
	if slices.Contains(setFields, "Limit") {
		return l
	}

	return 50
}

// textFilter filters column for a substring. If the parameter is set, but
// empty, only resources where column is empty match.
func textFilter(query *gorm.DB, setFields []string, field, column, value string) *gorm.DB {
	if value != "" {
		return query.Where(fmt.Sprintf("%s LIKE ?", column), fmt.Sprintf("%%%s%%", value))
	}

	if slices.Contains(setFields, field) {
		return query.Where(fmt.Sprintf("%s = ''", column))
	}

	return query
}

// searchFilter filters for resources where any of the columns contains search.
func searchFilter(db, query *gorm.DB, search string, columns ...string) *gorm.DB {
	if search == "" || len(columns) == 0 {
		return query
	}

	condition := db.Where(fmt.Sprintf("%s LIKE ?", columns[0]), fmt.Sprintf("%%%s%%", search))
	for _, column := range columns[1:] {
		condition = condition.Or(fmt.Sprintf("%s LIKE ?", column), fmt.Sprintf("%%%s%%", search))
	}

	return query.Where(condition)
}
