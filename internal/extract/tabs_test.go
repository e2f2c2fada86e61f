package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickRequestTabGroupPrefersNumberedTopLeft(t *testing.T) {
	window := Rect{X: 0, Y: 0, Width: 1200, Height: 800}

	// Numbered request tabs anchored to the window's top-left
	requestTabs := &TabGroup{
		Rect:   Rect{X: 10, Y: 40, Width: 800, Height: 30},
		Titles: []string{"1", "2", "3"},
	}
	// The inner sub-editor's own tabs, lower and further right
	editorTabs := &TabGroup{
		Rect:   Rect{X: 600, Y: 400, Width: 400, Height: 30},
		Titles: []string{"Raw", "Pretty", "Hex"},
	}

	picked := PickRequestTabGroup([]*TabGroup{editorTabs, requestTabs}, window)
	assert.Same(t, requestTabs, picked)
}

func TestPickRequestTabGroupPenalizesEditorVocabulary(t *testing.T) {
	window := Rect{X: 0, Y: 0, Width: 1200, Height: 800}

	// Same geometry, different captions: the vocabulary terms decide
	editorTabs := &TabGroup{
		Rect:   Rect{X: 10, Y: 40},
		Titles: []string{"Request", "Response"},
	}
	userTabs := &TabGroup{
		Rect:   Rect{X: 10, Y: 40},
		Titles: []string{"login attempt", "replay"},
	}

	picked := PickRequestTabGroup([]*TabGroup{editorTabs, userTabs}, window)
	assert.Same(t, userTabs, picked)
}

func TestPickRequestTabGroupEmpty(t *testing.T) {
	assert.Nil(t, PickRequestTabGroup(nil, Rect{Width: 100, Height: 100}))
}

func TestPickRequestTabGroupSingleCandidate(t *testing.T) {
	only := &TabGroup{Rect: Rect{X: 900, Y: 700}, Titles: []string{"Raw"}}
	picked := PickRequestTabGroup([]*TabGroup{only}, Rect{Width: 1000, Height: 800})
	assert.Same(t, only, picked)
}

func TestPickRequestTabGroupTieKeepsFirst(t *testing.T) {
	a := &TabGroup{Rect: Rect{X: 10, Y: 10}, Titles: []string{"1", "2"}}
	b := &TabGroup{Rect: Rect{X: 10, Y: 10}, Titles: []string{"1", "2"}}

	picked := PickRequestTabGroup([]*TabGroup{a, b}, Rect{Width: 1000, Height: 800})
	assert.Same(t, a, picked)
}

func TestCollectTabGroups(t *testing.T) {
	inner := &TabGroup{Titles: []string{"Raw", "Pretty"}}
	outer := &TabGroup{
		Titles: []string{"1", "2"},
		Panes:  []Node{&Container{Child: []Node{inner}}},
	}
	tree := &Container{Child: []Node{&Label{Content: "toolbar"}, outer}}

	groups := CollectTabGroups(tree)
	require.Len(t, groups, 2)
	assert.Same(t, outer, groups[0])
	assert.Same(t, inner, groups[1])
}

func TestScoreTabGroupSpatialTerms(t *testing.T) {
	window := Rect{X: 0, Y: 0, Width: 1000, Height: 800}
	titles := []string{"alpha", "beta"}

	topLeft := scoreTabGroup(&TabGroup{Rect: Rect{X: 0, Y: 0}, Titles: titles}, window)
	bottomRight := scoreTabGroup(&TabGroup{Rect: Rect{X: 900, Y: 700}, Titles: titles}, window)

	assert.Greater(t, topLeft, bottomRight)
}
