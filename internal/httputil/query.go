package httputil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/url"
	"reflect"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// structField is an exported field of a filter or an editable resource
// with the parameter name it is bound from.
type structField struct {
	name   string
	param  string
	filter bool
}

// structFields returns the fields of v with the parameter name from the tag
// passed. Options after a comma in the tag are ignored, fields tagged "-"
// or without the tag are skipped. Embedded structs are flattened.
func structFields(v any, tag string) []structField {
	var fields []structField

	var walk func(t reflect.Type)
	walk = func(t reflect.Type) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				walk(f.Type)
				continue
			}

			param, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if !f.IsExported() || param == "" || param == "-" {
				continue
			}

			// The filterField tag marks fields that are processed by explicit
			// logic instead of a gorm Where with the field name, e.g. Search
			fields = append(fields, structField{
				name:   f.Name,
				param:  param,
				filter: f.Tag.Get("filterField") != "false",
			})
		}
	}

	walk(reflect.Indirect(reflect.ValueOf(v)).Type())
	return fields
}

// GetURLFields checks which query parameters of filter are set in the URL.
//
// queryFields contains all field names that can be used directly
// in a gorm Where statement as argument to specify the fields filtered on.
// As gorm uses interface{} as type for the Where statement, we cannot use
// a []string type here.
//
// setFields contains all field names set in the query parameters, including
// empty ones. This is used to filter for empty values, e.g. "?unit=".
func GetURLFields(url *url.URL, filter any) ([]any, []string) {
	var queryFields []any
	var setFields []string

	query := url.Query()
	for _, f := range structFields(filter, "form") {
		if !query.Has(f.param) {
			continue
		}

		setFields = append(setFields, f.name)
		if f.filter {
			queryFields = append(queryFields, f.name)
		}
	}

	return queryFields, setFields
}

// GetBodyFields returns the names of the fields of resource that are set
// in the JSON body, including fields set to null. These are the fields that
// a PATCH request updates.
//
// This function reads and copies the request body, it must always
// be called before any of gin's c.*Bind methods.
func GetBodyFields(c *gin.Context, resource any) ([]any, error) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	var mapBody map[string]json.RawMessage
	if err := json.Unmarshal(body, &mapBody); err != nil {
		log.Error().Str("request-id", requestid.Get(c)).Msgf("%T: %v", err, err.Error())
		return []any{}, ErrInvalidBody
	}

	var bodyFields []any
	for _, f := range structFields(resource, "json") {
		if _, ok := mapBody[f.param]; ok {
			bodyFields = append(bodyFields, f.name)
		}
	}

	return bodyFields, nil
}
