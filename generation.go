package pagemill

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pagemill/pagemill/internal"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

//go:embed templates
var templateFS embed.FS

//go:embed assets
var assetFS embed.FS

type MarkdownPage struct {
	HTML template.HTML
}

// Generate builds the static site: it loads the content source,
// builds the page map, and renders every route with the page-map
// views normalized for that route.
func Generate(
	ctx context.Context, outDir string, basePath string, conf Config,
	uiPrintln func(format string, a ...any),
) error {
	rootPath := basePath
	if rootPath == "" {
		rootPath = "/"
	}

	if !strings.HasSuffix(rootPath, "/") {
		rootPath += "/"
	}

	rootURL, err := url.Parse(rootPath)
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}

	tpl := template.New("templates")

	funcs := template.FuncMap{
		"attr": func(name string) template.HTMLAttr {
			return template.HTMLAttr(name)
		},
		"base_path": func() string {
			return basePath
		},
		"enabled": enabled,
		"abs_url": func(targetUrl string) string {
			target, err := url.Parse(targetUrl)
			if err != nil {
				panic("bad URL: " + targetUrl)
			}

			if target.Scheme != "" {
				return targetUrl
			}

			return rootURL.JoinPath(targetUrl).String()
		},
	}

	tpl.Funcs(funcs)

	tpl, err = tpl.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	uiPrintln("Loading content")

	src, err := OpenSource(conf.Source)
	if err != nil {
		return fmt.Errorf("open content source: %w", err)
	}

	entries, err := BuildPageMap(src)
	if err != nil {
		return fmt.Errorf("build page map: %w", err)
	}

	theme := DefaultTheme().Extend(conf.Theme)
	routes := Routes(entries)

	err = os.MkdirAll(outDir, 0o770)
	if err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	jobs := make(chan string)

	grp, gCtx := errgroup.WithContext(ctx)

	// Copy all assets.
	grp.Go(func() error {
		err := os.CopyFS(outDir, assetFS)
		if err != nil {
			return fmt.Errorf("write assets directory: %w", err)
		}

		return nil
	})

	grp.Go(func() error {
		err := internal.MarshalFile(
			filepath.Join(outDir, "pagemap.json"), entries)
		if err != nil {
			return fmt.Errorf("write page map: %w", err)
		}

		return nil
	})

	// Queue the rendering of each route.
	grp.Go(func() error {
		defer close(jobs)

		for _, route := range routes {
			select {
			case jobs <- route:
			case <-gCtx.Done():
				return gCtx.Err()
			}
		}

		return nil
	})

	// Start workers that will render routes.
	for range 16 {
		grp.Go(func() error {
			localTpl, err := tpl.Clone()
			if err != nil {
				return fmt.Errorf("clone templates: %w", err)
			}

			for route := range jobs {
				err := renderRoute(
					outDir, localTpl,
					entries, route, theme, conf.Title,
				)
				if err != nil {
					return fmt.Errorf("render %s: %w", route, err)
				}
			}

			return nil
		})
	}

	err = grp.Wait()
	if err != nil {
		return fmt.Errorf("render site: %w", err)
	}

	uiPrintln("Rendered %d pages", len(routes))

	return nil
}

func renderRoute(
	outDir string,
	tpl *template.Template,
	entries []*Entry, route string,
	theme Theme, siteTitle string,
) error {
	res := Normalize(entries, route, Options{DefaultTheme: theme})

	if len(res.ActivePath) == 0 {
		return fmt.Errorf("no page map entry for route %q", route)
	}

	active := res.ActivePath[len(res.ActivePath)-1]

	var htmlBuf bytes.Buffer

	err := goldmark.Convert(active.Content, &htmlBuf)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}

	styled, err := applyClasses(&htmlBuf)
	if err != nil {
		return fmt.Errorf("add element classes: %w", err)
	}

	page := Page{
		Title:      active.Title,
		SiteTitle:  siteTitle,
		Route:      route,
		Theme:      res.ActiveThemeContext,
		Navbar:     menuItems(res.TopLevelNavbarItems),
		Menu:       menuItems(res.DocsDirectories),
		Breadcrumb: breadcrumb(res.ActivePath),
		Contents: MarkdownPage{
			HTML: styled,
		},
	}

	pageDir := filepath.Join(
		outDir, filepath.FromSlash(strings.TrimPrefix(route, "/")))

	return renderPage(pageDir, tpl, "page.html", page, res)
}

// menuItems converts normalized entries to the menu model consumed by
// the templates. Routes are kept site-relative, the templates resolve
// them against the base path.
func menuItems(entries []*DocEntry) []MenuItem {
	var items []MenuItem

	for _, d := range entries {
		item := MenuItem{
			Title:     d.Title,
			Active:    d.Active,
			NewWindow: d.NewWindow,
			Separator: d.Type == TypeSeparator,
			Children:  menuItems(d.Children),
		}

		switch {
		case d.HRef != "":
			item.HRef = d.HRef
		case d.IsRoutable():
			item.HRef = d.Route
		}

		items = append(items, item)
	}

	return items
}

func breadcrumb(activePath []*DocEntry) []MenuItem {
	items := []MenuItem{
		{
			Title: "Home",
			HRef:  "/",
		},
	}

	for i, d := range activePath {
		item := MenuItem{
			Title:  d.Title,
			Active: i == len(activePath)-1,
		}

		if d.IsRoutable() {
			item.HRef = d.Route
		}

		items = append(items, item)
	}

	return items
}

// applyClasses decorates the rendered markdown with the stylesheet's
// element classes.
func applyClasses(buf *bytes.Buffer) (template.HTML, error) {
	doc, err := html.Parse(buf)
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	classes := map[string]string{
		"h1":    "heading heading-1",
		"h2":    "heading heading-2",
		"h3":    "heading heading-3",
		"h4":    "heading heading-4",
		"a":     "doc-link",
		"ul":    "doc-list",
		"ol":    "doc-list doc-list-ordered",
		"table": "doc-table",
		"pre":   "code-block",
	}

	for n := range doc.Descendants() {
		if n.Type == html.ElementNode {
			class, ok := classes[n.Data]
			if !ok {
				continue
			}

			n.Attr = append(n.Attr, html.Attribute{
				Key: "class",
				Val: class,
			})
		}
	}

	var out bytes.Buffer

	err = html.Render(&out, doc)
	if err != nil {
		return "", fmt.Errorf("render modified HTML: %w", err)
	}

	return template.HTML(out.String()), nil
}

func renderPage(
	outDir string,
	tpl *template.Template,
	templateName string,
	page Page,
	data any,
) (outErr error) {
	err := os.MkdirAll(outDir, 0o770)
	if err != nil {
		return fmt.Errorf("create %q: %w", outDir, err)
	}

	err = internal.MarshalFile(
		filepath.Join(outDir, "index.json"), data)
	if err != nil {
		return fmt.Errorf("write page data: %w", err)
	}

	indexPath := filepath.Join(outDir, "index.html")

	file, err := os.Create(indexPath)
	if err != nil {
		return fmt.Errorf("create index.html: %w", err)
	}

	defer internal.Close("index.html", file, &outErr)

	err = tpl.ExecuteTemplate(file, templateName, page)
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	return nil
}
