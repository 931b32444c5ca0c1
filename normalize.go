package pagemill

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Options controls normalization.
type Options struct {
	// DefaultTheme seeds the root theme context. The zero value means
	// DefaultTheme().
	DefaultTheme Theme
}

// DocEntry is a normalized page-map node.
type DocEntry struct {
	Kind          EntryKind      `json:"kind,omitempty"`
	Name          string         `json:"name"`
	Route         string         `json:"route,omitempty"`
	Title         string         `json:"title,omitempty"`
	Type          string         `json:"type"`
	Display       string         `json:"display,omitempty"`
	HRef          string         `json:"href,omitempty"`
	NewWindow     bool           `json:"newWindow,omitempty"`
	Theme         Theme          `json:"theme"`
	FrontMatter   map[string]any `json:"frontMatter,omitempty"`
	WithIndexPage bool           `json:"withIndexPage,omitempty"`
	Active        bool           `json:"active,omitempty"`
	Children      []*DocEntry    `json:"children,omitempty"`
	Content       []byte         `json:"-"`
}

// IsRoutable reports whether the entry resolves to a page of its own.
// External links and folders without an index page do not.
func (d *DocEntry) IsRoutable() bool {
	if d.HRef != "" || d.Route == "" {
		return false
	}

	return d.Kind == KindPage || (d.Kind == KindFolder && d.WithIndexPage)
}

// HasActive reports whether any descendant of the entry is active.
func (d *DocEntry) HasActive() bool {
	for _, c := range d.Children {
		if c.Active || c.HasActive() {
			return true
		}
	}

	return false
}

// Result holds the parallel views produced by Normalize.
type Result struct {
	// ActiveType is the type of the entry matching the current route,
	// empty when no entry matches.
	ActiveType string `json:"activeType,omitempty"`
	// ActiveIndex is the position of the active entry in
	// FlatDocsDirectories for doc entries, or in TopLevelNavbarItems
	// for page and menu entries. -1 when not applicable.
	ActiveIndex        int         `json:"activeIndex"`
	ActiveThemeContext Theme       `json:"activeThemeContext"`
	ActivePath         []*DocEntry `json:"activePath,omitempty"`

	Directories         []*DocEntry `json:"directories"`
	FlatDirectories     []*DocEntry `json:"flatDirectories"`
	DocsDirectories     []*DocEntry `json:"docsDirectories"`
	FlatDocsDirectories []*DocEntry `json:"flatDocsDirectories"`
	TopLevelNavbarItems []*DocEntry `json:"topLevelNavbarItems"`
}

// Normalize turns a raw page map into the ordered, themed views that
// drive sidebar, navbar, breadcrumb and pagination, marking the entry
// that matches route as active.
func Normalize(entries []*Entry, route string, opts Options) *Result {
	theme := opts.DefaultTheme
	if theme == (Theme{}) {
		theme = DefaultTheme()
	}

	res := Result{
		ActiveIndex:        -1,
		ActiveThemeContext: theme,
	}

	res.Directories = normalizeEntries(entries, route, theme)
	res.FlatDirectories = flattenRoutable(res.Directories)
	res.DocsDirectories = docsView(res.Directories)
	res.FlatDocsDirectories = flattenDocs(res.DocsDirectories)
	res.TopLevelNavbarItems = navbarItems(res.Directories)
	res.ActivePath = activePath(res.Directories)

	if len(res.ActivePath) > 0 {
		active := res.ActivePath[len(res.ActivePath)-1]

		res.ActiveType = active.Type
		res.ActiveThemeContext = active.Theme

		switch active.Type {
		case TypePage, TypeMenu:
			res.ActiveIndex = slices.Index(res.TopLevelNavbarItems, active)
		default:
			res.ActiveIndex = slices.IndexFunc(res.FlatDocsDirectories,
				func(d *DocEntry) bool {
					return d.Route == active.Route
				})
		}
	}

	return &res
}

// normalizeEntries orders and normalizes one sibling level. Meta key
// order comes first, the remaining siblings follow sorted by name.
// Meta keys without a backing file synthesize link, separator and
// menu entries.
func normalizeEntries(entries []*Entry, route string, inherited Theme) []*DocEntry {
	var (
		meta     *MetaFile
		siblings []*Entry
	)

	for _, e := range entries {
		if e.Kind == KindMeta {
			if meta == nil {
				meta = e.Meta
			}

			continue
		}

		siblings = append(siblings, e)
	}

	wildcard := meta.Wildcard()

	byName := make(map[string]*Entry, len(siblings))
	for _, e := range siblings {
		byName[e.Name] = e
	}

	var out []*DocEntry

	seen := make(map[string]bool)

	if meta != nil {
		for _, key := range meta.Keys {
			if key == WildcardKey {
				continue
			}

			me := meta.Entries[key]

			if e, ok := byName[key]; ok {
				out = append(out, normalizeEntry(e, me, wildcard, route, inherited))
				seen[key] = true

				continue
			}

			if v := virtualEntry(key, me, wildcard, inherited); v != nil {
				out = append(out, v)
			}
		}
	}

	rest := make([]*Entry, 0, len(siblings))

	for _, e := range siblings {
		if !seen[e.Name] {
			rest = append(rest, e)
		}
	}

	slices.SortStableFunc(rest, func(a, b *Entry) int {
		return strings.Compare(a.Name, b.Name)
	})

	for _, e := range rest {
		out = append(out, normalizeEntry(e, MetaEntry{}, wildcard, route, inherited))
	}

	return out
}

func normalizeEntry(
	e *Entry, me MetaEntry, wildcard MetaEntry,
	route string, inherited Theme,
) *DocEntry {
	me = me.withDefaults(wildcard)

	theme := inherited.Extend(me.Theme)

	d := DocEntry{
		Kind:          e.Kind,
		Name:          e.Name,
		Route:         e.Route,
		Type:          typeOrDoc(me.Type),
		Display:       displayOrNormal(me.Display),
		HRef:          me.HRef,
		NewWindow:     me.NewWindow,
		Theme:         theme,
		FrontMatter:   e.FrontMatter,
		WithIndexPage: e.WithIndexPage,
		Content:       e.Content,
	}

	d.Title = me.Title
	if d.Title == "" {
		if t, ok := e.FrontMatter["title"].(string); ok {
			d.Title = t
		}
	}

	if d.Title == "" {
		d.Title = defaultTitle(e.Name)
	}

	if e.Kind == KindFolder {
		d.Children = normalizeEntries(e.Children, route, theme)
	}

	attachMenuItems(&d, me, theme)

	d.Active = d.IsRoutable() && route != "" && e.Route == route

	return &d
}

// virtualEntry synthesizes an entry for a meta key with no backing
// file. Only keys that describe a link, separator or menu produce an
// entry, anything else is a stale reference and gets ignored.
func virtualEntry(key string, me MetaEntry, wildcard MetaEntry, inherited Theme) *DocEntry {
	me = me.withDefaults(wildcard)

	if me.HRef == "" && me.Type != TypeSeparator && me.Type != TypeMenu {
		return nil
	}

	d := DocEntry{
		Name:      key,
		Title:     me.Title,
		Type:      typeOrDoc(me.Type),
		Display:   displayOrNormal(me.Display),
		HRef:      me.HRef,
		NewWindow: me.NewWindow,
		Theme:     inherited.Extend(me.Theme),
	}

	if d.Title == "" && d.Type != TypeSeparator {
		d.Title = defaultTitle(key)
	}

	attachMenuItems(&d, me, d.Theme)

	return &d
}

// attachMenuItems expands the items of a menu-typed entry into
// virtual link children.
func attachMenuItems(d *DocEntry, me MetaEntry, theme Theme) {
	if d.Type != TypeMenu || me.Items == nil {
		return
	}

	for _, key := range me.Items.Keys {
		item := me.Items.Entries[key]

		title := item.Title
		if title == "" {
			title = defaultTitle(key)
		}

		d.Children = append(d.Children, &DocEntry{
			Name:      key,
			Title:     title,
			Type:      TypeDoc,
			Display:   DisplayNormal,
			HRef:      item.HRef,
			NewWindow: item.NewWindow,
			Theme:     theme,
		})
	}
}

func flattenRoutable(items []*DocEntry) []*DocEntry {
	var out []*DocEntry

	var walk func(items []*DocEntry)

	walk = func(items []*DocEntry) {
		for _, d := range items {
			if d.IsRoutable() {
				out = append(out, d)
			}

			walk(d.Children)
		}
	}

	walk(items)

	return out
}

// docsView filters the hierarchy down to the sidebar view: hidden
// entries are dropped, and navbar subtrees (page and menu entries)
// only remain when the active route lives under them.
func docsView(items []*DocEntry) []*DocEntry {
	var out []*DocEntry

	for _, d := range items {
		if d.Display == DisplayHidden {
			continue
		}

		switch d.Type {
		case TypePage, TypeMenu:
			if !d.Active && !d.HasActive() {
				continue
			}
		}

		c := *d
		c.Children = docsView(d.Children)
		out = append(out, &c)
	}

	return out
}

func flattenDocs(items []*DocEntry) []*DocEntry {
	var out []*DocEntry

	var walk func(items []*DocEntry)

	walk = func(items []*DocEntry) {
		for _, d := range items {
			if d.Type == TypeDoc && d.IsRoutable() {
				out = append(out, d)
			}

			walk(d.Children)
		}
	}

	walk(items)

	return out
}

func navbarItems(items []*DocEntry) []*DocEntry {
	var out []*DocEntry

	for _, d := range items {
		if d.Display == DisplayHidden {
			continue
		}

		if d.Type == TypePage || d.Type == TypeMenu {
			out = append(out, d)
		}
	}

	return out
}

func activePath(items []*DocEntry) []*DocEntry {
	for _, d := range items {
		if d.Active {
			return []*DocEntry{d}
		}

		if p := activePath(d.Children); p != nil {
			return append([]*DocEntry{d}, p...)
		}
	}

	return nil
}

func typeOrDoc(t string) string {
	if t == "" {
		return TypeDoc
	}

	return t
}

func displayOrNormal(d string) string {
	if d == "" {
		return DisplayNormal
	}

	return d
}

var titleCaser = cases.Title(language.English)

var titleSeparators = strings.NewReplacer("-", " ", "_", " ")

// defaultTitle derives a presentable title from a file name.
func defaultTitle(name string) string {
	return titleCaser.String(titleSeparators.Replace(name))
}
