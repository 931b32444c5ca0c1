package pagemill

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/adrg/frontmatter"
)

// EntryKind discriminates raw page-map entries.
type EntryKind string

const (
	KindPage   EntryKind = "page"
	KindFolder EntryKind = "folder"
	KindMeta   EntryKind = "meta"
)

// Entry is a raw page-map node as read from the content tree, before
// normalization.
type Entry struct {
	Kind          EntryKind      `json:"kind"`
	Name          string         `json:"name"`
	Route         string         `json:"route,omitempty"`
	FrontMatter   map[string]any `json:"frontMatter,omitempty"`
	WithIndexPage bool           `json:"withIndexPage,omitempty"`
	Children      []*Entry       `json:"children,omitempty"`
	Meta          *MetaFile      `json:"meta,omitempty"`
	Content       []byte         `json:"-"`
}

var markdownExts = []string{".md", ".mdx"}

var metaFiles = map[string]func([]byte) (*MetaFile, error){
	"_meta.json": ParseMetaJSON,
	"_meta.yaml": ParseMetaYAML,
	"_meta.yml":  ParseMetaYAML,
}

// BuildPageMap walks a content filesystem and returns the raw entry
// tree that Normalize operates on. Markdown files become page entries
// with their front matter parsed out, directories become folders, and
// _meta sidecar files become meta entries. An index page (index,
// _index or README) inside a directory folds into the directory
// entry.
func BuildPageMap(fsys fs.FS) ([]*Entry, error) {
	return buildDir(fsys, ".", "/")
}

func buildDir(fsys fs.FS, dir string, route string) ([]*Entry, error) {
	list, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}

	var entries []*Entry

	for _, d := range list {
		name := d.Name()

		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
			continue
		}

		fullPath := path.Join(dir, name)

		if d.IsDir() {
			folder, err := buildFolder(fsys, fullPath, name, route)
			if err != nil {
				return nil, err
			}

			if folder != nil {
				entries = append(entries, folder)
			}

			continue
		}

		if parse, ok := metaFiles[name]; ok {
			data, err := fs.ReadFile(fsys, fullPath)
			if err != nil {
				return nil, fmt.Errorf("read %q: %w", fullPath, err)
			}

			meta, err := parse(data)
			if err != nil {
				return nil, fmt.Errorf("parse %q: %w", fullPath, err)
			}

			entries = append(entries, &Entry{
				Kind: KindMeta,
				Name: name,
				Meta: meta,
			})

			continue
		}

		ext := path.Ext(name)
		if !slices.Contains(markdownExts, ext) {
			continue
		}

		page, err := buildPage(fsys, fullPath, strings.TrimSuffix(name, ext), route)
		if err != nil {
			return nil, err
		}

		entries = append(entries, page)
	}

	return mergeSiblings(entries), nil
}

func buildFolder(
	fsys fs.FS, fullPath string, name string, parentRoute string,
) (*Entry, error) {
	folderRoute := path.Join(parentRoute, name)

	children, err := buildDir(fsys, fullPath, folderRoute)
	if err != nil {
		return nil, err
	}

	if len(children) == 0 {
		return nil, nil
	}

	folder := Entry{
		Kind:     KindFolder,
		Name:     name,
		Route:    folderRoute,
		Children: children,
	}

	// Fold an index page into the folder entry itself.
	for i, c := range children {
		if c.Kind != KindPage || c.Name != "index" {
			continue
		}

		folder.FrontMatter = c.FrontMatter
		folder.Content = c.Content
		folder.WithIndexPage = true
		folder.Children = slices.Delete(children, i, i+1)

		break
	}

	return &folder, nil
}

func buildPage(
	fsys fs.FS, fullPath string, base string, parentRoute string,
) (*Entry, error) {
	data, err := fs.ReadFile(fsys, fullPath)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", fullPath, err)
	}

	// README and the Hugo-style _index are index pages too.
	if strings.EqualFold(base, "README") || base == "_index" {
		base = "index"
	}

	pageRoute := path.Join(parentRoute, base)
	if base == "index" {
		pageRoute = parentRoute
	}

	var matter map[any]any

	content, err := frontmatter.Parse(bytes.NewReader(data), &matter)
	if err != nil {
		return nil, fmt.Errorf("parse front matter in %q: %w", fullPath, err)
	}

	return &Entry{
		Kind:        KindPage,
		Name:        base,
		Route:       pageRoute,
		FrontMatter: stringifyKeys(matter),
		Content:     content,
	}, nil
}

// mergeSiblings folds a page into a same-named sibling folder, so
// that "guide.md" next to "guide/" behaves like "guide/index.md".
func mergeSiblings(entries []*Entry) []*Entry {
	folders := make(map[string]*Entry)

	for _, e := range entries {
		if e.Kind == KindFolder {
			folders[e.Name] = e
		}
	}

	if len(folders) == 0 {
		return entries
	}

	merged := entries[:0]

	for _, e := range entries {
		folder, ok := folders[e.Name]
		if e.Kind == KindPage && ok && !folder.WithIndexPage {
			folder.FrontMatter = e.FrontMatter
			folder.Content = e.Content
			folder.WithIndexPage = true

			continue
		}

		merged = append(merged, e)
	}

	return merged
}

// Routes returns the sorted routes of all page-bearing entries in the
// tree.
func Routes(entries []*Entry) []string {
	var routes []string

	var walk func(entries []*Entry)

	walk = func(entries []*Entry) {
		for _, e := range entries {
			switch e.Kind {
			case KindPage:
				routes = append(routes, e.Route)
			case KindFolder:
				if e.WithIndexPage {
					routes = append(routes, e.Route)
				}

				walk(e.Children)
			}
		}
	}

	walk(entries)

	slices.Sort(routes)

	return slices.Compact(routes)
}

// FindEntry returns the page-bearing entry for a route, or nil.
func FindEntry(entries []*Entry, route string) *Entry {
	for _, e := range entries {
		switch e.Kind {
		case KindPage:
			if e.Route == route {
				return e
			}
		case KindFolder:
			if e.WithIndexPage && e.Route == route {
				return e
			}

			if found := FindEntry(e.Children, route); found != nil {
				return found
			}
		}
	}

	return nil
}

// stringifyKeys converts the map[any]any trees produced by YAML front
// matter decoding into JSON-compatible map[string]any trees.
func stringifyKeys(m map[any]any) map[string]any {
	if m == nil {
		return nil
	}

	res := make(map[string]any, len(m))

	for k, v := range m {
		res[fmt.Sprint(k)] = stringifyValue(v)
	}

	return res
}

func stringifyValue(v any) any {
	switch vv := v.(type) {
	case map[any]any:
		return stringifyKeys(vv)
	case []any:
		arr := make([]any, len(vv))
		for i := range vv {
			arr[i] = stringifyValue(vv[i])
		}

		return arr
	default:
		return v
	}
}
