package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON is a map stored as a jsonb column
type JSON map[string]interface{}

// Value implements driver.Valuer for writing jsonb columns
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner for reading jsonb columns
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSON scan: %T", value)
	}

	return json.Unmarshal(data, j)
}
