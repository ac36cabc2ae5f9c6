package editor_test

import (
	"fmt"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/blocks"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/config"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/cursor"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/editor"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/schedule"
	"golang.org/x/net/html"
)

func Example() {
	sched := schedule.NewManual()
	e := editor.New(editor.Options{
		Scheduler:   sched,
		Descriptors: blocks.Defaults(""),
		Value:       "<p>Release notes</p>",
	})
	defer e.Close()
	e.OnChange(func(string) { fmt.Println("changed") })

	txt := dom.Find(e.Root(), func(n *html.Node) bool { return n.Type == html.TextNode })
	e.SetSelection(cursor.Caret(txt, 0))
	if err := e.Execute(edtypes.CmdH2, nil); err != nil {
		fmt.Println(err)
	}
	sched.Advance(config.Default().HeadingIDDelay())

	for _, h := range e.GetHeadings() {
		fmt.Println(h.Level, h.ID, h.Text)
	}
	fmt.Println(e.GetSerializedDocument())
	// Output:
	// changed
	// changed
	// 2 release-notes Release notes
	// <div data-block="" data-block-id="b-1" data-block-type="text"><h2 id="release-notes">Release notes</h2></div>
}

func ExampleEditor_InsertCustomBlock() {
	e := editor.New(editor.Options{Descriptors: blocks.Defaults("")})
	defer e.Close()

	if err := e.InsertCustomBlock(blocks.TypeTable, blocks.TableSize{Rows: 2, Cols: 2}); err != nil {
		fmt.Println(err)
	}
	for _, b := range e.Blocks() {
		fmt.Println(b.ID, b.Type)
	}
	for _, info := range e.ListCustomBlockPayloads() {
		fmt.Println(info.ID, string(info.Payload))
	}
	// Output:
	// b-2 table
	// b-3 text
	// b-2 {"rows":2,"cols":2}
}
