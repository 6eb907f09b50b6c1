package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/yllada/revelation-indicator/entry"
)

const secretMask = "********"

var now = time.Now

var (
	rootStyle   = lipgloss.NewStyle().Bold(true)
	folderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	typeStyle   = lipgloss.NewStyle().Faint(true)
	branchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderTree renders the entries of store below a root node called name.
func RenderTree(name string, store *entry.Store) string {
	t := tree.Root(rootStyle.Render(name)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(branchStyle)
	addChildren(t, store.Roots())
	return t.String()
}

func addChildren(t *tree.Tree, entries []*entry.Entry) {
	for _, e := range entries {
		if e.IsFolder() {
			sub := tree.Root(folderStyle.Render(e.Name)).
				Enumerator(tree.RoundedEnumerator).
				EnumeratorStyle(branchStyle)
			addChildren(sub, e.Children)
			t.Child(sub)
			continue
		}
		t.Child(e.Name + " " + typeStyle.Render("("+e.TypeName()+")"))
	}
}

// FormatEntry writes the details of e to w. Secret values are masked
// unless reveal is set.
func FormatEntry(w io.Writer, e *entry.Entry, reveal bool, at time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Name:\t%s\n", e.Name)
	fmt.Fprintf(tw, "Type:\t%s\n", e.TypeName())
	if e.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", e.Description)
	}

	for _, f := range e.Fields {
		if f.Value == "" {
			continue
		}
		if f.ID == entry.FieldOTP {
			if code, remaining, ok := e.OTP(at); ok {
				fmt.Fprintf(tw, "One-time code:\t%s (%ds)\n", code, int(remaining.Seconds()))
			} else {
				fmt.Fprintf(tw, "One-time code:\tinvalid secret\n")
			}
			continue
		}
		value := f.Value
		if f.Secret && !reveal {
			value = secretMask
		}
		fmt.Fprintf(tw, "%s:\t%s\n", f.Name, value)
	}

	if !e.Updated.IsZero() {
		fmt.Fprintf(tw, "Updated:\t%s\n", e.Updated.Local().Format("2006-01-02 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if e.Notes != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimRight(e.Notes, "\n"))
	}
	return nil
}
