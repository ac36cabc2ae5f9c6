package blocks

import (
	"fmt"
	"strings"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	"golang.org/x/net/html"
)

// Snapshot - табличный снимок данных на момент вставки (например, выгрузка задач).
type Snapshot struct {
	Title   string     `json:"title,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func SnapshotDescriptor() edtypes.CustomBlockDescriptor {
	return edtypes.CustomBlockDescriptor{
		Render: renderSnapshot,
		Parse:  parseSnapshot,
	}
}

func textCell(tag, text string) *html.Node {
	cell := dom.NewElement(tag)
	cell.AppendChild(dom.NewText(text))
	return cell
}

func renderSnapshot(payload any) (string, error) {
	snap, err := decode[Snapshot](payload)
	if err != nil {
		return "", err
	}
	if len(snap.Columns) == 0 {
		return "", fmt.Errorf("%w: snapshot without columns", ErrInvalidPayload)
	}

	block := dom.NewElement("div",
		html.Attribute{Key: edtypes.AttrBlock},
		html.Attribute{Key: edtypes.AttrBlockType, Val: TypeSnapshot},
	)
	if snap.Title != "" {
		p := dom.NewElement("p")
		p.AppendChild(textCell("strong", snap.Title))
		block.AppendChild(p)
	}

	table := dom.NewElement("table")
	thead := dom.NewElement("thead")
	head := dom.NewElement("tr")
	for _, col := range snap.Columns {
		head.AppendChild(textCell("th", col))
	}
	thead.AppendChild(head)
	table.AppendChild(thead)

	tbody := dom.NewElement("tbody")
	for _, row := range snap.Rows {
		tr := dom.NewElement("tr")
		for i := range snap.Columns {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			tr.AppendChild(textCell("td", val))
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)
	block.AppendChild(table)
	return render(block), nil
}

func parseSnapshot(n *html.Node) (any, error) {
	table := dom.Find(n, isTag("table"))
	if table == nil {
		return nil, ErrNoContent
	}

	var snap Snapshot
	if title := dom.Find(n, isTag("strong")); title != nil && dom.Closest(title, n, isTag("table")) == nil {
		snap.Title = strings.TrimSpace(dom.TextContent(title))
	}
	for _, th := range dom.FindAll(table, isTag("th")) {
		snap.Columns = append(snap.Columns, strings.TrimSpace(dom.TextContent(th)))
	}
	for _, tr := range dom.FindAll(table, isTag("tr")) {
		var row []string
		for _, td := range dom.FindAll(tr, isTag("td")) {
			row = append(row, strings.TrimSpace(dom.TextContent(td)))
		}
		if row != nil {
			snap.Rows = append(snap.Rows, row)
		}
	}
	if len(snap.Columns) == 0 {
		return nil, ErrNoContent
	}
	return snap, nil
}
