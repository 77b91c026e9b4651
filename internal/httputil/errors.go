package httputil

import "errors"

var (
	ErrInvalidBody      = errors.New("the body of your request contains invalid or un-parseable data. Please check and try again")
	ErrRequestBodyEmpty = errors.New("the request body must not be empty")
	ErrInvalidUUID      = errors.New("the specified resource ID is not a valid UUID")
	ErrNoFilePost       = errors.New("you must send a file in the form field \"file\" to this endpoint")
	ErrWrongFileSuffix  = errors.New("this endpoint only supports files of the following types")
	ErrFileTooLarge     = errors.New("the uploaded file is too large")
)
