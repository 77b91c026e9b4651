package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

// BindData binds the JSON body of the request to data.
func BindData(c *gin.Context, data any) error {
	return bind(c, data, binding.JSON)
}

// BindBody binds the request body to data. Both kinds of HTML form bodies
// are accepted, any other body is parsed as JSON.
func BindBody(c *gin.Context, data any) error {
	switch c.ContentType() {
	case binding.MIMEPOSTForm:
		return bind(c, data, binding.Form)
	case binding.MIMEMultipartPOSTForm:
		return bind(c, data, binding.FormMultipart)
	}

	return bind(c, data, binding.JSON)
}

func bind(c *gin.Context, data any, b binding.Binding) error {
	err := c.ShouldBindWith(data, b)
	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) {
		return ErrRequestBodyEmpty
	}

	var jsonUnmarshalTypeError *json.UnmarshalTypeError
	if errors.As(err, &jsonUnmarshalTypeError) {
		return err
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return ValidationError(validationErrors)
	}

	log.Error().Str("request-id", requestid.Get(c)).Msgf("%T: %v", err, err.Error())
	return ErrInvalidBody
}

// UUIDFromString binds a string to a UUID
//
// This is needed because gin does not support form binding to uuid.UUID currently.
// Follow https://github.com/gin-gonic/gin/pull/3045 to see when this gets resolved.
func UUIDFromString(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}

	return u, nil
}

// MaxUploadSize is the largest file UploadedFile accepts, in bytes.
const MaxUploadSize = 10 << 20

// UploadedFile returns the file sent in the "file" form field, its lower case
// suffix and handles potential errors.
func UploadedFile(c *gin.Context, suffixes ...string) (multipart.File, string, error) {
	formFile, err := c.FormFile("file")
	if formFile == nil {
		return nil, "", ErrNoFilePost
	}

	if err != nil {
		return nil, "", err
	}

	if formFile.Size > MaxUploadSize {
		return nil, "", fmt.Errorf("%w, the limit is %d MiB", ErrFileTooLarge, MaxUploadSize>>20)
	}

	suffix := strings.ToLower(filepath.Ext(formFile.Filename))
	if !slices.Contains(suffixes, suffix) {
		return nil, "", fmt.Errorf("%w: %s", ErrWrongFileSuffix, strings.Join(suffixes, ", "))
	}

	f, err := formFile.Open()
	if err != nil {
		return nil, "", err
	}

	return f, suffix, nil
}
