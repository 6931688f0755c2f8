package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSettingKey(t *testing.T) {
	valid := []string{"max_listings", "theme", "limit_2"}
	for _, key := range valid {
		assert.NoError(t, ValidateSettingKey(key), "key %q", key)
	}

	invalid := []string{"", "MaxListings", "max-listings", "max listings", "día"}
	for _, key := range invalid {
		assert.Error(t, ValidateSettingKey(key), "key %q", key)
	}
}

func TestSettingsMapClone_DeepCopy(t *testing.T) {
	src := SettingsMap{
		"theme": {
			Label:   "Theme",
			Type:    SettingTypeSelect,
			Value:   StringValue("dark"),
			Options: []string{"light", "dark"},
		},
		"layout": {
			Label: "Layout",
			Type:  SettingTypeJSON,
			Value: JSONValue(json.RawMessage(`{"cols":3}`)),
		},
	}

	clone := src.Clone()
	require.Equal(t, src, clone)

	// Mutating the clone's backing slices must not leak into the source.
	clone["theme"].Options[0] = "mutated"
	clone["layout"].Value.Object[2] = 'X'
	assert.Equal(t, "light", src["theme"].Options[0])
	assert.Equal(t, json.RawMessage(`{"cols":3}`), src["layout"].Value.Object)

	delete(clone, "theme")
	assert.Contains(t, src, "theme")
}

func TestSettingsMapScan(t *testing.T) {
	var m SettingsMap
	require.NoError(t, m.Scan([]byte(`{"theme":{"label":"Theme","type":"string"}}`)))
	require.Contains(t, m, "theme")
	assert.Equal(t, SettingTypeString, m["theme"].Type)

	var fromString SettingsMap
	require.NoError(t, fromString.Scan(`{}`))
	assert.Empty(t, fromString)

	var fromNil SettingsMap
	require.NoError(t, fromNil.Scan(nil))
	assert.NotNil(t, fromNil)

	var bad SettingsMap
	assert.Error(t, bad.Scan(42))
}

func TestSettingValueConstructors(t *testing.T) {
	assert.Equal(t, SettingTypeString, StringValue("x").Kind)
	assert.Equal(t, SettingTypeNumber, NumberValue(3).Kind)
	assert.Equal(t, SettingTypeBoolean, BoolValue(true).Kind)
	assert.Equal(t, SettingTypeJSON, JSONValue(json.RawMessage(`[]`)).Kind)
}
