package models

import (
	"encoding/json"
	"time"
)

// Document is a JSON document stored under a slash separated path. This
// model is saved in the database indexed by path.
type Document struct {
	Path      string `gorm:"primary_key"`
	Body      json.RawMessage
	UpdatedAt time.Time
}
