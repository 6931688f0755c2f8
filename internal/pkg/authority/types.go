package authority

// ModuleAccess is one module's materialized access state for a tenant
// within a vertical.
type ModuleAccess struct {
	ModuleCode   string         `json:"module_code"`
	Enabled      bool           `json:"enabled"`
	Features     []string       `json:"features,omitempty"`
	Restrictions map[string]any `json:"restrictions,omitempty"`
}

// VerticalAccess is the materialized, tenant-specific view of one vertical,
// derived from the tenant's plan plus manual admin overrides.
type VerticalAccess struct {
	VerticalCode string         `json:"vertical_code"`
	Enabled      bool           `json:"enabled"`
	Modules      []ModuleAccess `json:"modules"`
}

// PermissionsResponse is the authority's answer for a tenant: the verticals
// and modules it may use plus its global feature flags.
type PermissionsResponse struct {
	Verticals []VerticalAccess `json:"verticals"`
	Features  []string         `json:"features"`
}

// Permission is a fine-grained grant, grouped by role on the authority side.
type Permission struct {
	Type      string `json:"type"`
	Scope     string `json:"scope"`
	Granted   bool   `json:"granted"`
	Condition string `json:"condition,omitempty"`
}

// FindVertical returns the access entry for a vertical code, or nil.
func (p *PermissionsResponse) FindVertical(code string) *VerticalAccess {
	for i := range p.Verticals {
		if p.Verticals[i].VerticalCode == code {
			return &p.Verticals[i]
		}
	}
	return nil
}

// FindModule returns the module entry inside a vertical's module list, or nil.
func (v *VerticalAccess) FindModule(code string) *ModuleAccess {
	for i := range v.Modules {
		if v.Modules[i].ModuleCode == code {
			return &v.Modules[i]
		}
	}
	return nil
}
