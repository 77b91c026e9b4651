package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultModel is embedded by licenses, import items and allotments.
type DefaultModel struct {
	ID uuid.UUID `json:"id" example:"65392deb-5e92-4268-b114-297faad6cdce"` // UUID for the resource
	Timestamps
}

// Timestamps are set by gorm. Deleted resources are kept with DeletedAt set.
type Timestamps struct {
	CreatedAt time.Time       `json:"createdAt" example:"2024-04-02T09:28:44.491514Z"`                                             // Time the resource was created
	UpdatedAt time.Time       `json:"updatedAt" example:"2024-04-17T10:14:01.048145Z"`                                             // Last time the resource was updated
	DeletedAt *gorm.DeletedAt `json:"deletedAt" gorm:"index" example:"2024-04-22T11:01:05.058161Z" swaggertype:"primitive,string"` // Time the resource was marked as deleted
}

func (m *DefaultModel) AfterFind(_ *gorm.DB) error {
	inUTC(&m.CreatedAt, &m.UpdatedAt)
	if m.DeletedAt != nil {
		inUTC(&m.DeletedAt.Time)
	}

	return nil
}

// BeforeCreate generates the UUID of the resource unless it is already set.
func (m *DefaultModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	return nil
}

// inUTC sets the location of all times to UTC. SQLite returns
// them with a +0000 offset.
func inUTC(times ...*time.Time) {
	for _, t := range times {
		*t = t.In(time.UTC)
	}
}
