package commands

import (
	"strings"
	"testing"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/checklist"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/cursor"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const blockOpen = `<div data-block="" data-block-id="b-1" data-block-type="text">`

func setup(t *testing.T, inner string) (*html.Node, *cursor.Tracker, *Dispatcher) {
	t.Helper()
	root := dom.NewRoot()
	nodes, err := dom.ParseFragment(blockOpen + inner + `</div>`)
	require.NoError(t, err)
	dom.ReplaceChildren(root, nodes)
	tr := cursor.NewTracker()
	return root, tr, New(root, tr)
}

func textNode(t *testing.T, root *html.Node, contains string) *html.Node {
	t.Helper()
	n := dom.Find(root, func(n *html.Node) bool {
		return n.Type == html.TextNode && strings.Contains(n.Data, contains)
	})
	require.NotNil(t, n, "text %q not found", contains)
	return n
}

func inner(root *html.Node) string {
	s := dom.RenderChildren(root)
	s = strings.TrimPrefix(s, blockOpen)
	return strings.TrimSuffix(s, "</div>")
}

func TestApplyInlineStyle(t *testing.T) {
	t.Run("wrap and unwrap range", func(t *testing.T) {
		root, tr, d := setup(t, `<p>hello world</p>`)
		txt := textNode(t, root, "hello")
		tr.Select(cursor.Selection{Anchor: cursor.Position{Node: txt}, Focus: cursor.Position{Node: txt, Offset: 5}})

		assert.True(t, d.ApplyInlineStyle("strong"))
		assert.Equal(t, `<p><strong>hello</strong> world</p>`, inner(root))

		sel := tr.Selection()
		assert.Equal(t, "hello", sel.Anchor.Node.Data)
		assert.Equal(t, 5, sel.Focus.Offset)

		assert.True(t, d.ApplyInlineStyle("strong"))
		assert.Equal(t, `<p>hello world</p>`, inner(root))
	})

	t.Run("range across paragraphs", func(t *testing.T) {
		root, tr, d := setup(t, `<p>one</p><p>two</p>`)
		tr.Select(cursor.Selection{
			Anchor: cursor.Position{Node: textNode(t, root, "one"), Offset: 1},
			Focus:  cursor.Position{Node: textNode(t, root, "two"), Offset: 2},
		})

		assert.True(t, d.ApplyInlineStyle("em"))
		assert.Equal(t, `<p>o<em>ne</em></p><p><em>tw</em>o</p>`, inner(root))
	})

	t.Run("collapsed outside style", func(t *testing.T) {
		root, tr, d := setup(t, `<p>plain</p>`)
		tr.Select(cursor.Caret(textNode(t, root, "plain"), 2))

		assert.False(t, d.ApplyInlineStyle("strong"))
	})

	t.Run("collapsed inside style unwraps", func(t *testing.T) {
		root, tr, d := setup(t, `<p><u>under</u></p>`)
		tr.Select(cursor.Caret(textNode(t, root, "under"), 2))

		assert.True(t, d.ApplyInlineStyle("u"))
		assert.Equal(t, `<p>under</p>`, inner(root))
	})
}

func TestApplyBlockFormat(t *testing.T) {
	root, tr, d := setup(t, `<p>Release Notes</p>`)
	tr.Select(cursor.Caret(textNode(t, root, "Release"), 0))

	assert.True(t, d.ApplyBlockFormat("h2"))
	assert.Equal(t, `<h2>Release Notes</h2>`, inner(root))
	assert.False(t, d.ApplyBlockFormat("h2"), "heading format is set, not toggled")

	h2 := dom.Find(root, func(n *html.Node) bool { return dom.IsElement(n, "h2") })
	dom.SetAttr(h2, "id", "release-notes")
	assert.True(t, d.ApplyBlockFormat("h3"))
	assert.Equal(t, "release-notes", dom.GetAttr(h2, "id"), "heading level change keeps id")

	assert.True(t, d.ApplyBlockFormat("p"))
	assert.Equal(t, `<p>Release Notes</p>`, inner(root))
}

func TestApplyBlockFormatWrapsBareText(t *testing.T) {
	root, tr, d := setup(t, `bare <em>text</em>`)
	tr.Select(cursor.Caret(textNode(t, root, "bare"), 1))

	assert.True(t, d.ApplyBlockFormat("h1"))
	assert.Equal(t, `<h1>bare <em>text</em></h1>`, inner(root))
}

func TestBlockquoteToggles(t *testing.T) {
	root, tr, d := setup(t, `<p>quote</p>`)
	tr.Select(cursor.Caret(textNode(t, root, "quote"), 0))

	assert.True(t, d.ApplyBlockFormat("blockquote"))
	assert.Equal(t, `<blockquote><p>quote</p></blockquote>`, inner(root))

	assert.True(t, d.ApplyBlockFormat("blockquote"))
	assert.Equal(t, `<p>quote</p>`, inner(root))
}

func TestToggleListType(t *testing.T) {
	root, tr, d := setup(t, `<p>item</p>`)
	tr.Select(cursor.Caret(textNode(t, root, "item"), 0))

	assert.True(t, d.ToggleListType("ul"))
	assert.Equal(t, `<ul><li>item</li></ul>`, inner(root))

	assert.True(t, d.ToggleListType("ol"))
	assert.Equal(t, `<ol><li>item</li></ol>`, inner(root))

	assert.True(t, d.ToggleListType("ol"))
	assert.Equal(t, `<p>item</p>`, inner(root))
	assert.True(t, dom.IsAttached(tr.Selection().Anchor.Node, root))
}

func TestToggleListTypeEmptyParagraph(t *testing.T) {
	root, tr, d := setup(t, `<p><br/></p>`)
	p := dom.Find(root, func(n *html.Node) bool { return dom.IsElement(n, "p") })
	tr.Select(cursor.Caret(p, 0))

	assert.True(t, d.ToggleListType("ul"))
	assert.Equal(t, `<ul><li><br/></li></ul>`, inner(root))
	assert.True(t, dom.IsAttached(tr.Selection().Anchor.Node, root), "caret follows replaced paragraph")
}

func TestToggleChecklistState(t *testing.T) {
	root, tr, d := setup(t, `<ul><li>one</li><li>two</li><li>three</li></ul>`)
	tr.Select(cursor.Caret(textNode(t, root, "two"), 0))

	assert.True(t, d.ToggleChecklistState())
	list := dom.Find(root, checklist.IsList)
	assert.Equal(t, edtypes.ListTypeTask, dom.GetAttr(list, edtypes.AttrListType))
	for _, li := range checklist.Items(list) {
		assert.NotNil(t, checklist.Checkbox(li))
	}

	assert.True(t, d.ToggleChecklistState())
	assert.Equal(t, `<ul><li>one</li><li>two</li><li>three</li></ul>`, inner(root))
}

func TestToggleChecklistFromParagraph(t *testing.T) {
	root, tr, d := setup(t, `<p>task</p>`)
	tr.Select(cursor.Caret(textNode(t, root, "task"), 0))

	assert.True(t, d.ToggleChecklistState())
	li := dom.Find(root, func(n *html.Node) bool { return dom.IsElement(n, "li") })
	require.NotNil(t, li)
	assert.NotNil(t, checklist.Checkbox(li))
	assert.Equal(t, "task", dom.TextContent(li))
}

func TestInsertHorizontalRule(t *testing.T) {
	root, tr, d := setup(t, `<p>above</p>`)
	tr.Select(cursor.Caret(textNode(t, root, "above"), 5))

	assert.True(t, d.InsertHorizontalRule())
	assert.Equal(t, `<p>above</p><hr/><p><br/></p>`, inner(root))
	assert.True(t, dom.IsElement(tr.Selection().Anchor.Node, "p"))
}

func TestApplyLink(t *testing.T) {
	t.Run("wrap selection", func(t *testing.T) {
		root, tr, d := setup(t, `<p>see docs here</p>`)
		txt := textNode(t, root, "docs")
		tr.Select(cursor.Selection{Anchor: cursor.Position{Node: txt, Offset: 4}, Focus: cursor.Position{Node: txt, Offset: 8}})

		a := d.ApplyLink("https://example.com", "")
		require.NotNil(t, a)
		assert.Equal(t, `<p>see <a href="https://example.com">docs</a> here</p>`, inner(root))

		tr.Select(cursor.Caret(a.FirstChild, 1))
		a = d.ApplyLink("https://example.org", "")
		require.NotNil(t, a)
		assert.Equal(t, "https://example.org", dom.GetAttr(a, "href"))

		assert.Nil(t, d.ApplyLink("", ""))
		assert.Equal(t, `<p>see docs here</p>`, inner(root))
	})

	t.Run("collapsed inserts text", func(t *testing.T) {
		root, tr, d := setup(t, `<p>ab</p>`)
		tr.Select(cursor.Caret(textNode(t, root, "ab"), 1))

		require.NotNil(t, d.ApplyLink("https://example.com", "link"))
		assert.Equal(t, `<p>a<a href="https://example.com">link</a>b</p>`, inner(root))
	})
}

func TestNoBlockIsNoop(t *testing.T) {
	root := dom.NewRoot()
	tr := cursor.NewTracker()
	d := New(root, tr)

	assert.False(t, d.ApplyInlineStyle("strong"))
	assert.False(t, d.ApplyBlockFormat("h1"))
	assert.False(t, d.ToggleListType("ul"))
	assert.False(t, d.ToggleChecklistState())
	assert.False(t, d.InsertHorizontalRule())
	assert.Nil(t, d.ApplyLink("https://example.com", ""))
	assert.False(t, d.InsertAtCaret(dom.NewElement("br")))
}
