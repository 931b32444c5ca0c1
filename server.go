package pagemill

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

// PreviewServer serves a generated site for local preview, together
// with JSON endpoints exposing the raw page map and per-route
// normalization results.
type PreviewServer struct {
	SiteDir string
	Theme   Theme

	mu      sync.RWMutex
	entries []*Entry
}

func NewPreviewServer(siteDir string, theme Theme, entries []*Entry) *PreviewServer {
	return &PreviewServer{
		SiteDir: siteDir,
		Theme:   theme,
		entries: entries,
	}
}

// SetEntries swaps in a fresh page map after a rebuild.
func (s *PreviewServer) SetEntries(entries []*Entry) {
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

func (s *PreviewServer) pageMap() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.entries
}

func (s *PreviewServer) Start(addr string) error {
	e := echo.New()
	e.HideBanner = true

	e.GET("/api/pagemap", s.handlePageMap)
	e.GET("/api/page", s.handlePage)
	e.Static("/", s.SiteDir)

	return e.Start(addr)
}

func (s *PreviewServer) handlePageMap(c echo.Context) error {
	return c.JSON(http.StatusOK, s.pageMap())
}

func (s *PreviewServer) handlePage(c echo.Context) error {
	route := c.QueryParam("route")
	if route == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing route")
	}

	res := Normalize(s.pageMap(), route, Options{DefaultTheme: s.Theme})

	if len(res.ActivePath) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "no such route")
	}

	return c.JSON(http.StatusOK, res)
}
