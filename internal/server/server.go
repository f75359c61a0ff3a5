// Package server exposes the analysis API and a small HTML dashboard for
// browsing patterns and writing guides.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"

	"github.com/blogforge/toppost/internal/analyzer"
	"github.com/blogforge/toppost/internal/category"
	"github.com/blogforge/toppost/internal/database"
	"github.com/blogforge/toppost/internal/guide"
	"github.com/blogforge/toppost/internal/search"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for the analysis API and dashboard.
type Server struct {
	db       *database.DB
	analyzer *analyzer.Analyzer
	source   search.Source
	guides   *guide.Generator
	pages    map[string]*template.Template
	router   chi.Router
}

// New creates a new Server.
func New(db *database.DB, an *analyzer.Analyzer, source search.Source) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderHTML,
	}

	// Parse base template first, then clone it per page so each page gets
	// its own {{define "content"}} and {{define "title"}}.
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	pageNames := []string{"index.html", "guide.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{
		db:       db,
		analyzer: an,
		source:   source,
		guides:   guide.NewGenerator(db),
		pages:    pages,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api/top-posts", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/search", s.handleSearch)
		r.Get("/patterns/{category}", s.handlePattern)
		r.Get("/writing-guide", s.handleGuide)
		r.Get("/writing-guide/markdown", s.handleGuideMarkdown)
		r.Get("/stats", s.handleStats)
	})

	s.router.Get("/", s.handleIndex)
	s.router.Get("/guide/{category}", s.handleGuidePage)

	staticSub, _ := fs.Sub(staticFS, "static")
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
}

type analyzeRequest struct {
	Keyword string `json:"keyword"`
	TopN    int    `json:"top_n"`
}

// handleAnalyze is the explicit ingestion trigger: it searches, analyzes the
// results synchronously and returns the per-URL summaries.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Keyword) == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}

	topN := req.TopN
	if topN <= 0 {
		topN = analyzer.TopResultCount
	}
	if topN > 10 {
		topN = 10
	}

	results, err := s.source.TopResults(r.Context(), req.Keyword, topN)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("search failed: %v", err))
		return
	}

	res := s.analyzer.Analyze(r.Context(), req.Keyword, results)
	writeJSON(w, http.StatusOK, res)
}

// handleSearch returns ranked results immediately and analyzes them in the
// background, so the search response never waits on page fetches.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}

	results, err := s.source.TopResults(r.Context(), keyword, analyzer.TopResultCount)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("search failed: %v", err))
		return
	}

	s.analyzer.OnKeywordSearch(keyword, results)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"keyword":  keyword,
		"category": category.Classify(keyword),
		"results":  results,
	})
}

func (s *Server) handlePattern(w http.ResponseWriter, r *http.Request) {
	cat := chi.URLParam(r, "category")
	if !category.IsValid(cat) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category: %s", cat))
		return
	}

	pattern, err := s.db.GetPattern(cat)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading pattern failed")
		return
	}
	if pattern == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no pattern for category %s yet", cat))
		return
	}
	writeJSON(w, http.StatusOK, pattern)
}

func (s *Server) handleGuide(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.guideCategory(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.guides.Generate(cat))
}

func (s *Server) handleGuideMarkdown(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.guideCategory(w, r)
	if !ok {
		return
	}
	g := s.guides.Generate(cat)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, guide.RenderMarkdown(g))
}

func (s *Server) guideCategory(w http.ResponseWriter, r *http.Request) (string, bool) {
	cat := strings.TrimSpace(r.URL.Query().Get("category"))
	if cat == "" {
		cat = category.Default
	}
	if !category.IsValid(cat) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category: %s", cat))
		return "", false
	}
	return cat, true
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.db.RecordCountsByCategory()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading stats failed")
		return
	}
	stats, err := s.db.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading stats failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_records":       stats.TotalRecords,
		"keywords":            stats.Keywords,
		"patterns":            stats.Patterns,
		"records_by_category": counts,
	})
}

type categoryRow struct {
	ID      string
	Records int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	counts, err := s.db.RecordCountsByCategory()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var rows []categoryRow
	for _, id := range category.IDs() {
		rows = append(rows, categoryRow{ID: id, Records: counts[id]})
	}

	s.render(w, "index.html", map[string]any{
		"Categories": rows,
	})
}

func (s *Server) handleGuidePage(w http.ResponseWriter, r *http.Request) {
	cat := chi.URLParam(r, "category")
	if !category.IsValid(cat) {
		http.NotFound(w, r)
		return
	}

	g := s.guides.Generate(cat)
	s.render(w, "guide.html", map[string]any{
		"Guide":    g,
		"Markdown": guide.RenderMarkdown(g),
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderHTML(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Run starts the HTTP server on the given port.
func (s *Server) Run(port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}
