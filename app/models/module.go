package models

import (
	"time"

	"gorm.io/gorm"
)

// Module is a feature unit within a vertical, optionally nested under a
// parent module and optionally gated by a minimum plan level. Modules form
// a tree via ParentID; depth is unbounded by design though practically
// shallow.
type Module struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Code                string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name                string         `gorm:"type:varchar(100);not null" json:"name"`
	Enabled             bool           `gorm:"default:true;index" json:"enabled"`
	Category            string         `gorm:"type:varchar(50);index" json:"category"`
	ParentID            *uint          `gorm:"index" json:"parent_id,omitempty"`
	Children            []Module       `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Dependencies        StringList     `gorm:"type:json" json:"dependencies"`
	RequiredPermissions StringList     `gorm:"type:json" json:"required_permissions"`
	MinPlanLevel        string         `gorm:"type:varchar(20)" json:"min_plan_level,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

// BuildModuleForest assembles a flat module list into its tree shape.
// Children are attached to their parents; modules whose parent is missing
// or whose ParentID chain is cyclic are kept as roots so bad data never
// drops a module from view.
func BuildModuleForest(flat []Module) []Module {
	byID := make(map[uint]Module, len(flat))
	children := make(map[uint][]uint, len(flat))
	for _, m := range flat {
		m.Children = nil
		byID[m.ID] = m
	}

	rootIDs := make([]uint, 0, len(flat))
	for _, m := range flat {
		if m.ParentID == nil {
			rootIDs = append(rootIDs, m.ID)
			continue
		}
		if _, ok := byID[*m.ParentID]; !ok || hasAncestorCycle(byID, m.ID) {
			rootIDs = append(rootIDs, m.ID)
			continue
		}
		children[*m.ParentID] = append(children[*m.ParentID], m.ID)
	}

	// Fix a parents-first order with an explicit stack, then attach children
	// bottom-up so every subtree is complete before it is copied into its
	// parent. The seen set keeps a node from being claimed twice.
	order := make([]uint, 0, len(flat))
	seen := make(map[uint]struct{}, len(flat))
	stack := append([]uint(nil), rootIDs...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		order = append(order, id)
		stack = append(stack, children[id]...)
	}

	nodes := make(map[uint]*Module, len(order))
	for _, id := range order {
		m := byID[id]
		nodes[id] = &m
	}
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		for _, childID := range children[id] {
			if child, ok := nodes[childID]; ok {
				nodes[id].Children = append(nodes[id].Children, *child)
			}
		}
	}

	out := make([]Module, 0, len(rootIDs))
	for _, id := range rootIDs {
		out = append(out, *nodes[id])
	}
	return out
}

func hasAncestorCycle(byID map[uint]Module, startID uint) bool {
	seen := map[uint]struct{}{startID: {}}
	cur := byID[startID]
	for cur.ParentID != nil {
		next, ok := byID[*cur.ParentID]
		if !ok {
			return false
		}
		if _, dup := seen[next.ID]; dup {
			return true
		}
		seen[next.ID] = struct{}{}
		cur = next
	}
	return false
}

// FindModuleByCode walks a module forest iteratively and returns the first
// module with the given code. The walk keeps a visited set so a cyclic
// ParentID chain in bad data cannot loop forever.
func FindModuleByCode(roots []Module, code string) *Module {
	stack := make([]*Module, 0, len(roots))
	for i := range roots {
		stack = append(stack, &roots[i])
	}
	visited := make(map[uint]struct{})
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[m.ID]; seen {
			continue
		}
		visited[m.ID] = struct{}{}
		if m.Code == code {
			return m
		}
		for i := range m.Children {
			stack = append(stack, &m.Children[i])
		}
	}
	return nil
}

// FlattenModules returns every module in the forest exactly once,
// parents before their children.
func FlattenModules(roots []Module) []Module {
	out := make([]Module, 0, len(roots))
	queue := make([]*Module, 0, len(roots))
	for i := range roots {
		queue = append(queue, &roots[i])
	}
	visited := make(map[uint]struct{})
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		if _, seen := visited[m.ID]; seen {
			continue
		}
		visited[m.ID] = struct{}{}
		out = append(out, *m)
		for i := range m.Children {
			queue = append(queue, &m.Children[i])
		}
	}
	return out
}
