package main

import (
	"debug/dwarf"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"github.com/gregbanks/novaprova/pkg/spiegel"
	dw "github.com/gregbanks/novaprova/pkg/spiegel/dwarf"
)

func init() {
	rootCmd.AddCommand(tuiCmd)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the loaded compile-unit/DIE tree interactively",
	Long: `tui opens an interactive tree view over the same introspection state
the dump-* subcommands print flat text from. It is a supplementary view,
not a replacement: everything it shows is also reachable through
dump-info, just one DIE at a time instead of as a scrollable tree.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(runTUI)
	},
}

// tuiEntry is what a tree node's reference carries: enough to reopen an
// isolated Walker on that exact DIE when the node is selected.
type tuiEntry struct {
	lo  *spiegel.LinkObj
	ref dw.Reference
}

// runTUI builds a tview tree mirroring every loaded compile unit's DIEs and
// a detail pane that renders whichever node is currently selected: its
// tag, reference and DW_AT_name. Types are not rendered in the detail pane.
func runTUI(s *spiegel.State) error {
	app := tview.NewApplication()
	root := tview.NewTreeNode("novaprova").SetColor(tcell.ColorWhite)
	tree := tview.NewTreeView().SetRoot(root).SetCurrentNode(root)

	detail := tview.NewTextView().SetDynamicColors(true).SetWordWrap(true)
	detail.SetBorder(true).SetTitle("detail")

	for _, lo := range s.LinkObjs() {
		if lo.Units == nil {
			continue
		}
		for _, cu := range lo.Units.List {
			w, err := dw.NewWalker(lo.Units, cu)
			if err != nil {
				continue
			}
			cuNode := tview.NewTreeNode(fmt.Sprintf("%s: compile unit", lo.Path)).
				SetColor(tcell.ColorYellow).
				SetReference(tuiEntry{lo: lo, ref: w.GetReference()})
			root.AddChild(cuNode)
			addDWARFChildren(cuNode, w, lo)
		}
	}

	tree.SetChangedFunc(func(node *tview.TreeNode) {
		e, ok := node.GetReference().(tuiEntry)
		if !ok {
			detail.SetText("")
			return
		}
		w, err := dw.NewWalkerAt(e.lo.Units, e.ref)
		if err != nil {
			detail.SetText(fmt.Sprintf("[red]%v", err))
			return
		}
		cur := w.Current()
		name := cur.StringAttr(dwarf.AttrName)
		if name == "" {
			name = "<anonymous>"
		}
		detail.SetText(fmt.Sprintf("[yellow]%s[white]\nref: %s\nname: %s", cur.Tag, cur.Ref, name))
	})

	layout := tview.NewFlex().
		AddItem(tree, 0, 1, true).
		AddItem(detail, 0, 1, false)

	tree.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			app.Stop()
			return nil
		}
		return event
	})

	return app.SetRoot(layout, true).SetFocus(tree).Run()
}

// addDWARFChildren mirrors w's descendants into tview tree nodes. w is a
// single shared cursor for the whole compile unit, matching the
// dump-info/DumpStructs traversal style: each recursive call descends one
// level with MoveDown and returns once MoveNext runs out of siblings at
// that level, leaving the caller's own MoveNext to continue from there.
func addDWARFChildren(parent *tview.TreeNode, w *dw.Walker, lo *spiegel.LinkObj) {
	if !w.MoveDown() {
		return
	}
	for {
		e := w.Current()
		label := e.Tag.String()
		if name := e.StringAttr(dwarf.AttrName); name != "" {
			label = fmt.Sprintf("%s %s", e.Tag, name)
		}
		node := tview.NewTreeNode(label).SetReference(tuiEntry{lo: lo, ref: w.GetReference()})
		parent.AddChild(node)
		addDWARFChildren(node, w, lo)
		if !w.MoveNext() {
			break
		}
	}
}
