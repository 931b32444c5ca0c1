package pagemill

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPageMap(t *testing.T) {
	fsys := fstest.MapFS{
		"index.md": &fstest.MapFile{Data: []byte(`---
title: Home
---

# Welcome
`)},
		"_meta.json": &fstest.MapFile{Data: []byte(`{
			"index": "Home",
			"guide": "Guide"
		}`)},
		"guide/index.md":   &fstest.MapFile{Data: []byte("# Guide\n")},
		"guide/install.md": &fstest.MapFile{Data: []byte("# Install\n")},
		"guide/notes.txt":  &fstest.MapFile{Data: []byte("not a page\n")},
		".git/config":      &fstest.MapFile{Data: []byte("ignored\n")},
	}

	entries, err := BuildPageMap(fsys)
	require.NoError(t, err)

	require.Len(t, entries, 3)

	meta := entries[0]
	assert.Equal(t, KindMeta, meta.Kind)
	require.NotNil(t, meta.Meta)
	assert.Equal(t, []string{"index", "guide"}, meta.Meta.Keys)

	guide := entries[1]
	assert.Equal(t, KindFolder, guide.Kind)
	assert.Equal(t, "/guide", guide.Route)
	assert.True(t, guide.WithIndexPage,
		"guide/index.md folds into the folder entry")
	assert.Contains(t, string(guide.Content), "# Guide")

	require.Len(t, guide.Children, 1)
	assert.Equal(t, "install", guide.Children[0].Name)
	assert.Equal(t, "/guide/install", guide.Children[0].Route)

	home := entries[2]
	assert.Equal(t, KindPage, home.Kind)
	assert.Equal(t, "/", home.Route)
	assert.Equal(t, map[string]any{"title": "Home"}, home.FrontMatter)
	assert.Contains(t, string(home.Content), "# Welcome")
}

func TestBuildPageMapIndexAliases(t *testing.T) {
	for _, name := range []string{"README.md", "readme.md", "_index.md"} {
		t.Run(name, func(t *testing.T) {
			fsys := fstest.MapFS{
				"docs/" + name: &fstest.MapFile{Data: []byte("# Docs\n")},
			}

			entries, err := BuildPageMap(fsys)
			require.NoError(t, err)

			require.Len(t, entries, 1)
			assert.True(t, entries[0].WithIndexPage)
			assert.Equal(t, "/docs", entries[0].Route)
		})
	}
}

func TestBuildPageMapMergesSiblingPage(t *testing.T) {
	fsys := fstest.MapFS{
		"guide.md": &fstest.MapFile{Data: []byte(`---
title: The Guide
---

# Guide
`)},
		"guide/install.md": &fstest.MapFile{Data: []byte("# Install\n")},
	}

	entries, err := BuildPageMap(fsys)
	require.NoError(t, err)

	// guide.md folds into the guide/ folder as its index page.
	require.Len(t, entries, 1)
	assert.Equal(t, KindFolder, entries[0].Kind)
	assert.True(t, entries[0].WithIndexPage)
	assert.Equal(t, map[string]any{"title": "The Guide"}, entries[0].FrontMatter)
	require.Len(t, entries[0].Children, 1)
	assert.Equal(t, "install", entries[0].Children[0].Name)
}

func TestBuildPageMapEmptyDirsSkipped(t *testing.T) {
	fsys := fstest.MapFS{
		"index.md":        &fstest.MapFile{Data: []byte("# Home\n")},
		"images/logo.png": &fstest.MapFile{Data: []byte{0x89}},
	}

	entries, err := BuildPageMap(fsys)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "index", entries[0].Name)
}

func TestRoutes(t *testing.T) {
	fsys := fstest.MapFS{
		"index.md":         &fstest.MapFile{Data: []byte("# Home\n")},
		"about.md":         &fstest.MapFile{Data: []byte("# About\n")},
		"guide/index.md":   &fstest.MapFile{Data: []byte("# Guide\n")},
		"guide/install.md": &fstest.MapFile{Data: []byte("# Install\n")},
		"empty/notes.txt":  &fstest.MapFile{Data: []byte("nope\n")},
	}

	entries, err := BuildPageMap(fsys)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/", "/about", "/guide", "/guide/install",
	}, Routes(entries))
}

func TestFindEntry(t *testing.T) {
	fsys := fstest.MapFS{
		"index.md":         &fstest.MapFile{Data: []byte("# Home\n")},
		"guide/index.md":   &fstest.MapFile{Data: []byte("# Guide\n")},
		"guide/install.md": &fstest.MapFile{Data: []byte("# Install\n")},
	}

	entries, err := BuildPageMap(fsys)
	require.NoError(t, err)

	install := FindEntry(entries, "/guide/install")
	require.NotNil(t, install)
	assert.Equal(t, "install", install.Name)

	guide := FindEntry(entries, "/guide")
	require.NotNil(t, guide)
	assert.Equal(t, KindFolder, guide.Kind)

	assert.Nil(t, FindEntry(entries, "/missing"))
}

func TestStringifyKeys(t *testing.T) {
	got := stringifyKeys(map[any]any{
		"tags": []any{"go", "docs"},
		"nested": map[any]any{
			1: "one",
		},
	})

	assert.Equal(t, map[string]any{
		"tags": []any{"go", "docs"},
		"nested": map[string]any{
			"1": "one",
		},
	}, got)
}
