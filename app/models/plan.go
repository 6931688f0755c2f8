package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Plan levels, totally ordered. The ordering is the contract for
// upgrade/downgrade comparison regardless of feature-set deltas.
const (
	PlanLevelFree         = "free"
	PlanLevelBasic        = "basic"
	PlanLevelProfessional = "professional"
	PlanLevelEnterprise   = "enterprise"
	PlanLevelCustom       = "custom"
)

// PlanLevelRank maps a plan level to its position in the total order.
// Unknown levels rank below free.
func PlanLevelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case PlanLevelCustom:
		return 4
	case PlanLevelEnterprise:
		return 3
	case PlanLevelProfessional:
		return 2
	case PlanLevelBasic:
		return 1
	case PlanLevelFree:
		return 0
	default:
		return -1
	}
}

// ModuleState records whether a module is enabled under a plan.
type ModuleState struct {
	ModuleCode string `json:"module_code"`
	Enabled    bool   `json:"enabled"`
}

// ModuleStateList is a JSON-stored list of per-module enablement states.
type ModuleStateList []ModuleState

// Value implements driver.Valuer for JSON column storage.
func (l ModuleStateList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSON column storage.
func (l *ModuleStateList) Scan(value interface{}) error {
	if value == nil {
		*l = ModuleStateList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into ModuleStateList", value)
	}
}

// Plan is a subscription tier defining which verticals, modules and
// features are available to tenants on it.
type Plan struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(100);not null" json:"name"`
	Level     string          `gorm:"type:varchar(20);not null;default:'free';index" json:"level"`
	Features  StringList      `gorm:"type:json" json:"features"`
	Verticals StringList      `gorm:"type:json" json:"verticals"`
	Modules   ModuleStateList `gorm:"type:json" json:"modules"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// ModuleEnabled reports the plan's enablement state for a module code.
// Modules absent from the plan's list are disabled.
func (p *Plan) ModuleEnabled(code string) bool {
	for _, ms := range p.Modules {
		if ms.ModuleCode == code {
			return ms.Enabled
		}
	}
	return false
}
