package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/AnshRaj112/karmnik-backend/internal/logger"
	"github.com/AnshRaj112/karmnik-backend/internal/view"
)

//go:embed templates/index.html static/app.js
var assets embed.FS

var pageTemplate = template.Must(template.ParseFS(assets, "templates/index.html"))

type pageData struct {
	Page             view.Page
	Version          uint64
	WriteKeyRequired bool
}

// Page renders the feeder page with the current state; the script keeps it live.
func (h *FeedingHandler) Page(w http.ResponseWriter, r *http.Request) {
	snap, page := h.currentPage()

	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageData{
		Page:             page,
		Version:          snap.Version,
		WriteKeyRequired: h.writeKey,
	})
	if err != nil {
		logger.Error("render page failed", "module", "handlers", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// Script serves the page's client script.
func (h *FeedingHandler) Script(w http.ResponseWriter, r *http.Request) {
	data, err := assets.ReadFile("static/app.js")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}
