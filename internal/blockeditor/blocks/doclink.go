package blocks

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	"golang.org/x/net/html"
)

// DocLink - строчная ссылка на другой документ.
type DocLink struct {
	DocID string `json:"doc_id"`
	Title string `json:"title"`
}

func DocLinkDescriptor(base string) edtypes.CustomBlockDescriptor {
	if base == "" {
		base = DefaultDocBase
	}
	return edtypes.CustomBlockDescriptor{
		Inline: true,
		Render: func(payload any) (string, error) {
			link, err := decode[DocLink](payload)
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(link.DocID) == "" {
				return "", fmt.Errorf("%w: empty document id", ErrInvalidPayload)
			}
			title := link.Title
			if title == "" {
				title = link.DocID
			}
			a := dom.NewElement("a", html.Attribute{Key: "href", Val: base + url.PathEscape(link.DocID)})
			a.AppendChild(dom.NewText(title))
			return render(a), nil
		},
		Parse: func(n *html.Node) (any, error) {
			a := dom.Find(n, isTag("a"))
			if a == nil {
				return nil, ErrNoContent
			}
			rest, ok := strings.CutPrefix(dom.GetAttr(a, "href"), base)
			if !ok || rest == "" {
				return nil, fmt.Errorf("%w: link outside %s", ErrInvalidPayload, base)
			}
			id, err := url.PathUnescape(rest)
			if err != nil {
				return nil, err
			}
			return DocLink{DocID: id, Title: dom.TextContent(a)}, nil
		},
	}
}
