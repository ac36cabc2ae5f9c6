package blocks

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	"golang.org/x/net/html"
)

type Image struct {
	Src   string `json:"src"`
	Alt   string `json:"alt,omitempty"`
	Width int    `json:"width,omitempty"`
	// left, right или пусто (по центру)
	Align string `json:"align,omitempty"`
}

func ImageDescriptor() edtypes.CustomBlockDescriptor {
	return edtypes.CustomBlockDescriptor{
		Render: renderImage,
		Parse:  parseImage,
	}
}

func validImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return false
	}
	return u.Scheme == "" || u.Scheme == "http" || u.Scheme == "https"
}

func renderImage(payload any) (string, error) {
	img, err := decode[Image](payload)
	if err != nil {
		return "", err
	}
	if !validImageURL(img.Src) {
		return "", fmt.Errorf("%w: image src %q", ErrInvalidPayload, img.Src)
	}

	attrs := []html.Attribute{{Key: "src", Val: img.Src}}
	if img.Alt != "" {
		attrs = append(attrs, html.Attribute{Key: "alt", Val: img.Alt})
	}
	if img.Width > 0 {
		attrs = append(attrs, html.Attribute{Key: "width", Val: strconv.Itoa(img.Width)})
	}
	switch img.Align {
	case "left", "right":
		attrs = append(attrs, html.Attribute{Key: "style", Val: "float: " + img.Align})
	case "":
	default:
		return "", fmt.Errorf("%w: image align %q", ErrInvalidPayload, img.Align)
	}
	return render(dom.NewElement("img", attrs...)), nil
}

func parseImage(n *html.Node) (any, error) {
	el := dom.Find(n, isTag("img"))
	if el == nil {
		return nil, ErrNoContent
	}
	src := dom.GetAttr(el, "src")
	if !validImageURL(src) {
		return nil, fmt.Errorf("%w: image src %q", ErrInvalidPayload, src)
	}

	img := Image{Src: src, Alt: dom.GetAttr(el, "alt"), Width: atoi(dom.GetAttr(el, "width"))}
	for _, style := range parseStyles(dom.GetAttr(el, "style")) {
		switch style.Key {
		case "width":
			if img.Width == 0 {
				img.Width = atoi(style.Val)
			}
		case "float":
			if style.Val == "left" || style.Val == "right" {
				img.Align = style.Val
			}
		}
	}
	return img, nil
}
