package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringArray maps a tag list to a JSON column. The normalizer is the only
// writer, so the stored value is always a JSON array; NULL and empty scan to
// an empty slice rather than nil so callers can range without checks.
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *StringArray) Scan(value interface{}) error {
	if a == nil {
		return fmt.Errorf("models.StringArray: Scan on nil pointer")
	}

	var raw []byte
	switch v := value.(type) {
	case nil:
		*a = StringArray{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models.StringArray: unsupported Scan type %T", value)
	}

	if len(raw) == 0 || string(raw) == "null" {
		*a = StringArray{}
		return nil
	}

	var arr []string
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("models.StringArray: %w", err)
	}
	*a = arr
	return nil
}
