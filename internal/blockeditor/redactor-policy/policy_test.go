package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	s := New()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "block markers kept",
			in:   `<div data-block="" data-block-id="b-1" data-block-type="text"><p>hi</p></div>`,
			want: `<div data-block="" data-block-id="b-1" data-block-type="text"><p>hi</p></div>`,
		},
		{
			name: "payload kept when base64",
			in:   `<div data-block="" data-block-type="table" data-block-payload="eyJyb3dzIjozfQ=="><table><tbody><tr><td>1</td></tr></tbody></table></div>`,
			want: `<div data-block="" data-block-type="table" data-block-payload="eyJyb3dzIjozfQ=="><table><tbody><tr><td>1</td></tr></tbody></table></div>`,
		},
		{
			name: "malformed payload dropped",
			in:   `<div data-block="" data-block-payload="not base64!"><p>x</p></div>`,
			want: `<div data-block=""><p>x</p></div>`,
		},
		{
			name: "checklist markup kept",
			in:   `<ul data-type="taskList"><li data-type="taskItem" data-checked="true"><input type="checkbox" checked=""/>done</li></ul>`,
			want: `<ul data-type="taskList"><li data-type="taskItem" data-checked="true"><input type="checkbox" checked=""/>done</li></ul>`,
		},
		{
			name: "cyrillic heading id kept",
			in:   `<h2 id="итоги-года">Итоги года</h2>`,
			want: `<h2 id="итоги-года">Итоги года</h2>`,
		},
		{
			name: "scripts and handlers removed",
			in:   `<p onclick="x()">text</p><script>alert(1)</script>`,
			want: `<p>text</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Sanitize(tt.in))
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	s := New()
	in := `<div data-block="" data-block-id="b-2" data-block-type="text"><h1 id="intro">Intro</h1><p><strong>a</strong> &amp; <em>b</em></p><blockquote><p>q</p></blockquote><hr/></div>`
	once := s.Sanitize(in)
	assert.Equal(t, once, s.Sanitize(once))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "bold text", PlainText("<strong>bold</strong> text"))
	assert.Empty(t, New().Sanitize(""))
}
