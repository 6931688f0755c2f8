package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// Setting value kinds. The discriminator is carried explicitly instead of
// being inferred from the runtime value.
const (
	SettingTypeString  = "string"
	SettingTypeNumber  = "number"
	SettingTypeBoolean = "boolean"
	SettingTypeSelect  = "select"
	SettingTypeJSON    = "json"
)

// Setting importance levels.
const (
	ImportanceLow    = "low"
	ImportanceMedium = "medium"
	ImportanceHigh   = "high"
)

// SettingKeyPattern is the allowed shape for setting keys within a type.
var SettingKeyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// SettingValue is a tagged union over string/number/boolean/json values.
// Exactly one of the typed fields is meaningful, selected by Kind.
type SettingValue struct {
	Kind   string          `json:"kind"`
	Str    string          `json:"str,omitempty"`
	Num    float64         `json:"num,omitempty"`
	Bool   bool            `json:"bool,omitempty"`
	Object json.RawMessage `json:"object,omitempty"`
}

// StringValue builds a string-kinded setting value.
func StringValue(s string) SettingValue {
	return SettingValue{Kind: SettingTypeString, Str: s}
}

// NumberValue builds a number-kinded setting value.
func NumberValue(n float64) SettingValue {
	return SettingValue{Kind: SettingTypeNumber, Num: n}
}

// BoolValue builds a boolean-kinded setting value.
func BoolValue(b bool) SettingValue {
	return SettingValue{Kind: SettingTypeBoolean, Bool: b}
}

// JSONValue builds a json-kinded setting value from raw JSON.
func JSONValue(raw json.RawMessage) SettingValue {
	return SettingValue{Kind: SettingTypeJSON, Object: raw}
}

// SettingDescriptor describes one configurable setting of a vertical type.
type SettingDescriptor struct {
	Label      string       `json:"label" validate:"required"`
	Type       string       `json:"type" validate:"required,oneof=string number boolean select json"`
	Value      SettingValue `json:"value"`
	Options    []string     `json:"options,omitempty"`
	Category   string       `json:"category"`
	Importance string       `json:"importance" validate:"omitempty,oneof=low medium high"`
}

// SettingsMap is the defaultSettings template of a vertical type, keyed by
// setting key. Stored as a JSON column.
type SettingsMap map[string]SettingDescriptor

// Value implements driver.Valuer for JSON column storage.
func (m SettingsMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSON column storage.
func (m *SettingsMap) Scan(value interface{}) error {
	if value == nil {
		*m = SettingsMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into SettingsMap", value)
	}
}

// Clone returns a deep copy of the settings map.
func (m SettingsMap) Clone() SettingsMap {
	out := make(SettingsMap, len(m))
	for k, d := range m {
		if d.Options != nil {
			opts := make([]string, len(d.Options))
			copy(opts, d.Options)
			d.Options = opts
		}
		if d.Value.Object != nil {
			raw := make(json.RawMessage, len(d.Value.Object))
			copy(raw, d.Value.Object)
			d.Value.Object = raw
		}
		out[k] = d
	}
	return out
}

// ValidateSettingKey checks a setting key against the allowed pattern.
func ValidateSettingKey(key string) error {
	if !SettingKeyPattern.MatchString(key) {
		return errors.New("setting key must match ^[a-z0-9_]+$")
	}
	return nil
}
