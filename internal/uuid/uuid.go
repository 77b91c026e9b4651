package uuid

import (
	"bytes"
	"encoding/json"

	google_uuid "github.com/google/uuid"
)

// UUID is the ID of an import item or allotment in a request. Unlike
// google/uuid, an empty value is accepted and means that no ID was given.
type UUID struct {
	google_uuid.UUID
}

var Nil UUID

func New() UUID {
	return UUID{google_uuid.New()}
}

func NewString() string {
	return google_uuid.NewString()
}

// parse parses s, an empty string is the Nil UUID.
func parse(s string) (UUID, error) {
	if s == "" {
		return Nil, nil
	}

	u, err := google_uuid.Parse(s)
	if err != nil {
		return Nil, err
	}

	return UUID{u}, nil
}

// UnmarshalParam implements gin's binding.BindUnmarshaler for URI, query and form parameters.
func (u *UUID) UnmarshalParam(p string) (err error) {
	*u, err = parse(p)
	return err
}

// UnmarshalJSON accepts a string, an empty string or null.
func (u *UUID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*u = Nil
		return nil
	}

	var s string
	err := json.Unmarshal(data, &s)
	if err != nil {
		return err
	}

	*u, err = parse(s)
	return err
}

// IsSet reports if the UUID is not the Nil UUID.
func (u UUID) IsSet() bool {
	return u.UUID != google_uuid.Nil
}
