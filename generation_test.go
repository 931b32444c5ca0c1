package pagemill

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeContentTree(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, data := range files {
		target := filepath.Join(dir, filepath.FromSlash(name))

		err := os.MkdirAll(filepath.Dir(target), 0o770)
		require.NoError(t, err)

		err = os.WriteFile(target, []byte(data), 0o660)
		require.NoError(t, err)
	}

	return dir
}

func discardPrintln(_ string, _ ...any) {}

func TestGenerate(t *testing.T) {
	contentDir := writeContentTree(t, map[string]string{
		"index.md": `---
title: Home
---

# Welcome

Start with the [guide](/guide).
`,
		"_meta.json": `{
			"index": "Home",
			"guide": "Guide"
		}`,
		"guide/index.md":   "# Guide\n",
		"guide/install.md": "# Install\n\n```sh\nmake install\n```\n",
	})

	outDir := t.TempDir()

	conf := Config{
		Title:  "Example Docs",
		Source: SourceConfig{Dir: contentDir},
		Theme:  &Theme{Toc: boolRef(false)},
	}

	err := Generate(context.Background(), outDir, "/docs", conf, discardPrintln)
	require.NoError(t, err)

	t.Run("renders every route", func(t *testing.T) {
		for _, p := range []string{
			"index.html",
			"guide/index.html",
			"guide/install/index.html",
		} {
			assert.FileExists(t, filepath.Join(outDir, filepath.FromSlash(p)))
		}
	})

	t.Run("copies assets", func(t *testing.T) {
		assert.FileExists(t, filepath.Join(outDir, "assets", "style.css"))
	})

	t.Run("page HTML", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(outDir, "index.html"))
		require.NoError(t, err)

		page := string(data)

		assert.Contains(t, page, "<title>Home - Example Docs</title>")
		assert.Contains(t, page, `class="heading heading-1"`)
		// Links resolve against the base path.
		assert.Contains(t, page, `href="/docs/assets/style.css"`)
		assert.Contains(t, page, `href="/docs/guide"`)
	})

	t.Run("marks the active menu entry", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(
			outDir, "guide", "install", "index.html"))
		require.NoError(t, err)

		page := string(data)

		assert.Contains(t, page, "menu-item active")
		assert.Contains(t, page, `class="code-block"`)
	})

	t.Run("writes the page map", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(outDir, "pagemap.json"))
		require.NoError(t, err)

		var entries []*Entry

		require.NoError(t, json.Unmarshal(data, &entries))
		assert.Len(t, entries, 3)
	})

	t.Run("writes per-route page data", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(
			outDir, "guide", "index.json"))
		require.NoError(t, err)

		var res Result

		require.NoError(t, json.Unmarshal(data, &res))
		assert.Equal(t, TypeDoc, res.ActiveType)
		require.NotEmpty(t, res.ActivePath)
		assert.Equal(t, "Guide", res.ActivePath[len(res.ActivePath)-1].Title)
		require.NotNil(t, res.ActiveThemeContext.Toc)
		assert.False(t, *res.ActiveThemeContext.Toc)
	})
}

func TestGenerateNoSource(t *testing.T) {
	err := Generate(
		context.Background(), t.TempDir(), "", Config{}, discardPrintln)

	assert.ErrorContains(t, err, "no content source configured")
}

func TestMenuItems(t *testing.T) {
	res := Normalize([]*Entry{
		{Kind: KindPage, Name: "index", Route: "/"},
		{Kind: KindMeta, Name: "_meta.json", Meta: mustMeta(t, `{
			"index": "Home",
			"github": {"title": "GitHub", "href": "https://github.com/example"},
			"---": {"type": "separator"}
		}`)},
	}, "/", Options{})

	items := menuItems(res.DocsDirectories)
	require.Len(t, items, 3)

	assert.Equal(t, "/", items[0].HRef)
	assert.True(t, items[0].Active)

	assert.Equal(t, "https://github.com/example", items[1].HRef)

	assert.True(t, items[2].Separator)
	assert.Empty(t, items[2].HRef)
}

func TestBreadcrumb(t *testing.T) {
	res := Normalize([]*Entry{
		{
			Kind:  KindFolder,
			Name:  "guide",
			Route: "/guide",
			Children: []*Entry{
				{Kind: KindPage, Name: "install", Route: "/guide/install"},
			},
		},
	}, "/guide/install", Options{})

	crumbs := breadcrumb(res.ActivePath)
	require.Len(t, crumbs, 3)

	assert.Equal(t, "Home", crumbs[0].Title)
	assert.Equal(t, "/", crumbs[0].HRef)

	assert.Equal(t, "Guide", crumbs[1].Title)
	assert.Empty(t, crumbs[1].HRef, "folders without an index page do not link")

	assert.Equal(t, "Install", crumbs[2].Title)
	assert.True(t, crumbs[2].Active)
}

func mustMeta(t *testing.T, data string) *MetaFile {
	t.Helper()

	mf, err := ParseMetaJSON([]byte(data))
	require.NoError(t, err)

	return mf
}
