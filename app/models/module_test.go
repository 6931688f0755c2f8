package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func TestBuildModuleForest_Nesting(t *testing.T) {
	flat := []Module{
		{ID: 1, Code: "crm"},
		{ID: 2, Code: "crm_leads", ParentID: uintPtr(1)},
		{ID: 3, Code: "crm_deals", ParentID: uintPtr(1)},
		{ID: 4, Code: "crm_deals_kanban", ParentID: uintPtr(3)},
		{ID: 5, Code: "reports"},
	}

	forest := BuildModuleForest(flat)
	require.Len(t, forest, 2)

	crm := forest[0]
	assert.Equal(t, "crm", crm.Code)
	require.Len(t, crm.Children, 2)
	assert.Equal(t, "crm_leads", crm.Children[0].Code)
	assert.Equal(t, "crm_deals", crm.Children[1].Code)
	require.Len(t, crm.Children[1].Children, 1)
	assert.Equal(t, "crm_deals_kanban", crm.Children[1].Children[0].Code)

	assert.Equal(t, "reports", forest[1].Code)
	assert.Empty(t, forest[1].Children)
}

func TestBuildModuleForest_MissingParentBecomesRoot(t *testing.T) {
	flat := []Module{
		{ID: 1, Code: "orphan", ParentID: uintPtr(99)},
		{ID: 2, Code: "root"},
	}

	forest := BuildModuleForest(flat)
	require.Len(t, forest, 2)
	assert.Equal(t, "orphan", forest[0].Code)
	assert.Empty(t, forest[0].Children)
}

func TestBuildModuleForest_CycleDoesNotDropModules(t *testing.T) {
	// a and b point at each other; neither may vanish and the build must
	// terminate.
	flat := []Module{
		{ID: 1, Code: "a", ParentID: uintPtr(2)},
		{ID: 2, Code: "b", ParentID: uintPtr(1)},
		{ID: 3, Code: "c"},
	}

	forest := BuildModuleForest(flat)
	codes := make(map[string]bool)
	for _, m := range FlattenModules(forest) {
		codes[m.Code] = true
	}
	assert.True(t, codes["a"])
	assert.True(t, codes["b"])
	assert.True(t, codes["c"])
	assert.Len(t, codes, 3)
}

func TestFindModuleByCode(t *testing.T) {
	flat := []Module{
		{ID: 1, Code: "crm"},
		{ID: 2, Code: "crm_leads", ParentID: uintPtr(1)},
		{ID: 3, Code: "crm_deals", ParentID: uintPtr(1)},
	}
	forest := BuildModuleForest(flat)

	found := FindModuleByCode(forest, "crm_deals")
	require.NotNil(t, found)
	assert.Equal(t, uint(3), found.ID)

	assert.Nil(t, FindModuleByCode(forest, "missing"))
	assert.Nil(t, FindModuleByCode(nil, "crm"))
}

func TestFlattenModules_ParentsBeforeChildren(t *testing.T) {
	flat := []Module{
		{ID: 1, Code: "crm"},
		{ID: 2, Code: "crm_leads", ParentID: uintPtr(1)},
		{ID: 3, Code: "crm_deals", ParentID: uintPtr(1)},
		{ID: 4, Code: "crm_deals_kanban", ParentID: uintPtr(3)},
	}
	forest := BuildModuleForest(flat)
	out := FlattenModules(forest)
	require.Len(t, out, 4)

	pos := make(map[string]int, len(out))
	for i, m := range out {
		pos[m.Code] = i
	}
	assert.Less(t, pos["crm"], pos["crm_leads"])
	assert.Less(t, pos["crm"], pos["crm_deals"])
	assert.Less(t, pos["crm_deals"], pos["crm_deals_kanban"])
}
