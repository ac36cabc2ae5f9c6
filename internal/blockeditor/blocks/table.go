package blocks

import (
	"fmt"
	"strconv"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	"golang.org/x/net/html"
)

type TableSize struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

func TableDescriptor() edtypes.CustomBlockDescriptor {
	return edtypes.CustomBlockDescriptor{
		Render: renderTable,
		Parse:  parseTable,
	}
}

func renderTable(payload any) (string, error) {
	size, err := decode[TableSize](payload)
	if err != nil {
		return "", err
	}
	if size.Rows < 1 || size.Cols < 1 || size.Rows > MaxTableSize || size.Cols > MaxTableSize {
		return "", fmt.Errorf("%w: table %dx%d", ErrInvalidPayload, size.Rows, size.Cols)
	}

	block := dom.NewElement("div",
		html.Attribute{Key: edtypes.AttrBlock},
		html.Attribute{Key: edtypes.AttrBlockType, Val: TypeTable},
	)
	table := dom.NewElement("table",
		html.Attribute{Key: "data-rows", Val: strconv.Itoa(size.Rows)},
		html.Attribute{Key: "data-cols", Val: strconv.Itoa(size.Cols)},
	)
	tbody := dom.NewElement("tbody")
	for range size.Rows {
		tr := dom.NewElement("tr")
		for range size.Cols {
			td := dom.NewElement("td")
			td.AppendChild(dom.Placeholder())
			tr.AppendChild(td)
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)
	block.AppendChild(table)
	return render(block), nil
}

// parseTable считает размер по фактической разметке: строки - все tr, столбцы - максимум по строкам с учетом colspan.
func parseTable(n *html.Node) (any, error) {
	table := dom.Find(n, isTag("table"))
	if table == nil {
		return nil, ErrNoContent
	}

	var size TableSize
	for _, tr := range dom.FindAll(table, isTag("tr")) {
		size.Rows++
		cols := 0
		for td := tr.FirstChild; td != nil; td = td.NextSibling {
			if !dom.IsElement(td, "td", "th") {
				continue
			}
			span := atoi(dom.GetAttr(td, "colspan"))
			cols += max(span, 1)
		}
		size.Cols = max(size.Cols, cols)
	}
	if size.Rows == 0 {
		return nil, ErrNoContent
	}
	return size, nil
}
