package applet

import (
	"github.com/yllada/revelation-indicator/common"
	"github.com/yllada/revelation-indicator/entry"
)

// MenuItem is one node of the database menu. Folders carry their children
// as a submenu; accounts are leaves that open the entry popup.
type MenuItem struct {
	Label    string
	Icon     string
	Entry    *entry.Entry
	Children []*MenuItem
}

// IsSubmenu reports whether the item opens a submenu.
func (m *MenuItem) IsSubmenu() bool {
	return m.Entry != nil && m.Entry.IsFolder()
}

// BuildMenu returns one item per top-level entry of store, each folder
// expanded depth-first into a submenu.
func BuildMenu(store *entry.Store) []*MenuItem {
	if store == nil {
		return nil
	}
	return buildItems(store.Roots())
}

func buildItems(entries []*entry.Entry) []*MenuItem {
	items := make([]*MenuItem, 0, len(entries))
	for _, e := range entries {
		item := &MenuItem{Label: e.Name, Icon: e.Icon(), Entry: e}
		if e.IsFolder() {
			item.Icon = common.IconFolder
			item.Children = buildItems(e.Children)
		}
		items = append(items, item)
	}
	return items
}

// CountItems returns the number of items in the menu tree.
func CountItems(items []*MenuItem) int {
	n := 0
	for _, item := range items {
		n += 1 + CountItems(item.Children)
	}
	return n
}
