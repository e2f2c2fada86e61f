// Package extract locates raw HTTP request/response text inside a UI widget
// tree. The tree is a small closed set of typed nodes rather than anything
// reflective: the UI collaborator builds it from whatever toolkit it uses,
// and the heuristics here only see Node values.
package extract

import "strings"

// Rect is a widget's position and size inside its window
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Node is one widget in the tree
type Node interface {
	Children() []Node
	Bounds() Rect
}

// TextBearer is a node whose current content is text worth scoring
type TextBearer interface {
	Node
	Text() string
}

// Container is a plain grouping widget
type Container struct {
	Rect  Rect
	Child []Node
}

func (c *Container) Children() []Node { return c.Child }
func (c *Container) Bounds() Rect     { return c.Rect }

// TextArea is an editable text widget (editors, message panes)
type TextArea struct {
	Rect    Rect
	Content string
}

func (t *TextArea) Children() []Node { return nil }
func (t *TextArea) Bounds() Rect     { return t.Rect }
func (t *TextArea) Text() string     { return t.Content }

// Label is a static text widget
type Label struct {
	Rect    Rect
	Content string
}

func (l *Label) Children() []Node { return nil }
func (l *Label) Bounds() Rect     { return l.Rect }
func (l *Label) Text() string     { return l.Content }

// TabGroup is a tabbed container; Titles holds the visible tab captions in
// order, Panes the per-tab content subtrees
type TabGroup struct {
	Rect   Rect
	Titles []string
	Panes  []Node
}

func (g *TabGroup) Children() []Node { return g.Panes }
func (g *TabGroup) Bounds() Rect     { return g.Rect }

// CollectText walks the subtree and returns every non-blank text-bearing
// leaf's trimmed content, in iteration order
func CollectText(root Node) []string {
	var out []string
	walk(root, func(n Node) {
		tb, ok := n.(TextBearer)
		if !ok {
			return
		}
		text := strings.TrimSpace(tb.Text())
		if text != "" {
			out = append(out, text)
		}
	})
	return out
}

// CollectTabGroups walks the subtree and returns every tab group, in
// iteration order
func CollectTabGroups(root Node) []*TabGroup {
	var out []*TabGroup
	walk(root, func(n Node) {
		if g, ok := n.(*TabGroup); ok {
			out = append(out, g)
		}
	})
	return out
}

func walk(n Node, visit func(Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, child := range n.Children() {
		walk(child, visit)
	}
}
