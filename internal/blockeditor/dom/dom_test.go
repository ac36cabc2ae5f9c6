package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func fragment(t *testing.T, markup string) *html.Node {
	t.Helper()
	nodes, err := ParseFragment(markup)
	require.NoError(t, err)
	root := NewRoot()
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root
}

func byTag(tag string) func(n *html.Node) bool {
	return func(n *html.Node) bool { return IsElement(n, tag) }
}

func TestAttrs(t *testing.T) {
	n := NewElement("div", html.Attribute{Key: "data-block"})

	assert.True(t, HasAttr(n, "data-block"))
	assert.Equal(t, "", GetAttr(n, "data-block"))
	assert.False(t, HasAttr(nil, "data-block"))

	assert.True(t, SetAttr(n, "data-block-id", "b-1"))
	assert.False(t, SetAttr(n, "data-block-id", "b-1"), "same value is not a change")
	assert.True(t, SetAttr(n, "data-block-id", "b-2"))
	assert.Equal(t, "b-2", GetAttr(n, "data-block-id"))

	assert.True(t, RemoveAttr(n, "data-block-id"))
	assert.False(t, RemoveAttr(n, "data-block-id"))
	assert.Equal(t, `<div data-block=""></div>`, Render(n))
}

func TestParseRender(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"inline", `hello <b>world</b>`, `hello <b>world</b>`},
		{"void elements", `<p>a<br>b</p><hr>`, `<p>a<br/>b</p><hr/>`},
		{"table rows", `<table><tr><td>1</td></tr></table>`, `<table><tbody><tr><td>1</td></tr></tbody></table>`},
		{"unclosed", `<p>one<p>two`, `<p>one</p><p>two</p>`},
		{"empty", ``, ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderChildren(fragment(t, tt.markup)))
		})
	}

	nodes, err := ParseFragment(`<p>x</p>`)
	require.NoError(t, err)
	assert.Nil(t, nodes[0].Parent, "parsed nodes are detached")
}

func TestFind(t *testing.T) {
	root := fragment(t, `<p>a <b>b</b></p><p><b>c</b></p>`)

	first := Find(root, byTag("b"))
	require.NotNil(t, first)
	assert.Equal(t, "b", TextContent(first))
	assert.Len(t, FindAll(root, byTag("b")), 2)
	assert.Equal(t, root, Find(root, func(n *html.Node) bool { return n == root }), "root itself is visited")
	assert.Nil(t, Find(root, byTag("table")))

	// Walk не спускается в потомков, если f вернула true
	var visited []string
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			visited = append(visited, n.Data)
		}
		return IsElement(n, "p")
	})
	assert.Equal(t, []string{"div", "p", "p"}, visited)
}

func TestAttachment(t *testing.T) {
	root := fragment(t, `<p><em>x</em></p>`)
	em := Find(root, byTag("em"))
	p := Find(root, byTag("p"))

	assert.True(t, IsAttached(em, root))
	assert.Equal(t, p, Closest(em, root, byTag("p")))
	assert.Equal(t, em, Closest(em, root, byTag("em")), "node itself is checked")
	assert.Nil(t, Closest(em, root, byTag("div")), "search stops before root")

	Detach(p)
	assert.False(t, IsAttached(em, root))
	assert.False(t, IsAttached(nil, root))
	Detach(p)
}

func TestMoves(t *testing.T) {
	t.Run("wrap and unwrap", func(t *testing.T) {
		root := fragment(t, `<p>a</p><p>b</p>`)
		first := root.FirstChild

		Wrap(first, NewElement("blockquote"))
		assert.Equal(t, `<blockquote><p>a</p></blockquote><p>b</p>`, RenderChildren(root))

		Unwrap(root.FirstChild)
		assert.Equal(t, `<p>a</p><p>b</p>`, RenderChildren(root))
	})

	t.Run("insert after", func(t *testing.T) {
		root := fragment(t, `<p>a</p><p>b</p>`)
		a, b := root.FirstChild, root.LastChild

		InsertAfter(a, b)
		assert.Equal(t, `<p>b</p><p>a</p>`, RenderChildren(root))
		InsertAfter(NewElement("hr"), b)
		assert.Equal(t, `<p>b</p><hr/><p>a</p>`, RenderChildren(root))
	})

	t.Run("move and replace children", func(t *testing.T) {
		root := fragment(t, `<ul><li>1</li></ul><ul><li>2</li></ul>`)
		first, second := root.FirstChild, root.LastChild

		MoveChildren(first, second)
		assert.Equal(t, `<ul><li>1</li><li>2</li></ul><ul></ul>`, RenderChildren(root))

		ReplaceChildren(second, []*html.Node{NewText("x")})
		assert.Equal(t, `<ul><li>1</li><li>2</li></ul><ul>x</ul>`, RenderChildren(root))
		assert.Len(t, Children(first), 2)
	})

	t.Run("rename keeps children", func(t *testing.T) {
		root := fragment(t, `<p id="x">t</p>`)
		Rename(root.FirstChild, "h2")
		assert.Equal(t, `<h2 id="x">t</h2>`, RenderChildren(root))
	})
}

func TestContent(t *testing.T) {
	tests := []struct {
		markup     string
		renderable bool
	}{
		{`<div><p><br></p></div>`, true},
		{`<div><p>text</p></div>`, true},
		{`<div><img src="/a.png"></div>`, true},
		{`<div><p>   </p></div>`, false},
		{`<div><p></p><span></span></div>`, false},
	}
	for _, tt := range tests {
		root := fragment(t, tt.markup)
		assert.Equal(t, tt.renderable, HasRenderableContent(root.FirstChild), tt.markup)
	}

	assert.True(t, IsWhitespaceText(NewText(" \n"+Zwsp)))
	assert.False(t, IsWhitespaceText(NewText(" a ")))
	assert.Equal(t, "ab", TextContent(fragment(t, `<li>`+Zwsp+`a<b>b</b></li>`)))

	assert.True(t, IsInline(NewText("x")))
	assert.True(t, IsInline(NewElement("strong")))
	assert.False(t, IsInline(NewElement("p")))
	assert.False(t, IsInline(nil))
}

func TestPaths(t *testing.T) {
	root := fragment(t, `<p>a</p><p>b<em>c</em></p>`)
	em := Find(root, byTag("em"))

	path, ok := Path(em.FirstChild, root)
	require.True(t, ok)
	assert.Equal(t, []int{1, 1, 0}, path)
	assert.Equal(t, em.FirstChild, Resolve(root, path))
	assert.Nil(t, Resolve(root, []int{5}))

	_, ok = Path(NewText("orphan"), root)
	assert.False(t, ok)

	first, _ := Path(root.FirstChild.FirstChild, root)
	assert.Negative(t, ComparePaths(first, path))
	assert.Positive(t, ComparePaths(path, first))

	assert.Equal(t, 1, Index(root.LastChild))
	assert.Equal(t, root.LastChild, ChildAt(root, 1))
	assert.Nil(t, ChildAt(root, -1))
}

func TestClone(t *testing.T) {
	root := fragment(t, `<div data-block="" data-block-id="b-1"><p>x</p></div>`)
	c := Clone(root)

	assert.Equal(t, RenderChildren(root), RenderChildren(c))
	assert.Nil(t, c.Parent)

	SetAttr(c.FirstChild, "data-block-id", "b-9")
	c.FirstChild.FirstChild.FirstChild.Data = "y"
	assert.Equal(t, "b-1", GetAttr(root.FirstChild, "data-block-id"))
	assert.Equal(t, "x", TextContent(root))
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, `<p><br/></p>`, Render(Placeholder()))
	assert.Equal(t, `<div contenteditable="true"></div>`, Render(NewRoot()))
}
