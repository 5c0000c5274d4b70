package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/headfix/internal/heal"
	"github.com/dgallion1/headfix/internal/outline"
	"github.com/dgallion1/headfix/internal/parser"
	"github.com/dgallion1/headfix/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// healResponse is the body of a synchronous heal.
type healResponse struct {
	Title      string              `json:"title"`
	Outcome    string              `json:"outcome"`
	Replaced   int                 `json:"replaced"`
	HTML       string              `json:"html"`
	Violations []outline.Violation `json:"violations"`
}

// handleHeal heals one document inline. It accepts either a multipart
// form with a "file" field or a raw body named by the "filename" query
// parameter (default upload.html).
func (s *Server) handleHeal(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	var (
		filename string
		data     []byte
	)
	if isMultipart(r) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		filename = sanitizeFilename(header.Filename)
		data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read file", http.StatusInternalServerError)
			return
		}
	} else {
		filename = sanitizeFilename(r.URL.Query().Get("filename"))
		if filename == "unnamed" {
			filename = "upload.html"
		}
		var err error
		data, err = io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read body", http.StatusBadRequest)
			return
		}
	}

	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	p, err := parser.ForFile(filename, parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext})
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "parse failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	rep := s.healer.Fix(r.Context(), doc.Root, r.FormValue("selector"), s.fixOptions(r))
	if rep.Err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   rep.Err.Error(),
			"outcome": rep.Outcome,
		})
		return
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}
	violations := outline.Check(rep.Root)
	if violations == nil {
		violations = []outline.Violation{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healResponse{
		Title:      doc.Title,
		Outcome:    rep.Outcome,
		Replaced:   rep.Replaced,
		HTML:       buf.String(),
		Violations: violations,
	})
}

func (s *Server) handleBatchHeal(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		jsonError(w, "batch pipeline unavailable", http.StatusServiceUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	sel := r.FormValue("selector")
	opts := s.fixOptions(r)

	var results []map[string]any
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "failed to open file",
			})
			continue
		}

		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "file too large or read error",
			})
			continue
		}

		job := pipeline.NewJob(filename, data, sel, opts)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename": filename,
			"job_id":   job.ID,
			"status":   pipeline.StatusQueued,
			"poll_url": fmt.Sprintf("/api/heal/%s/status", job.ID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

func (s *Server) handleHealStatus(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleHealResult(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	res := job.Result()
	if res == nil {
		snap := job.Snapshot()
		code := http.StatusConflict
		if snap.Status == pipeline.StatusFailed {
			code = http.StatusUnprocessableEntity
		}
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	if s.orchestrator == nil {
		jsonError(w, "batch pipeline unavailable", http.StatusServiceUnavailable)
		return nil
	}
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil
	}
	return job
}

// fixOptions reads heal options from the form or query, falling back to
// the configured defaults.
func (s *Server) fixOptions(r *http.Request) heal.FixOptions {
	opts := heal.FixOptions{
		ClassPrefix:   s.cfg.ClassPrefix,
		ForceSingleH1: s.cfg.ForceSingleH1,
	}
	if v := r.FormValue("class_prefix"); v != "" {
		opts.ClassPrefix = v
	}
	opts.ForceSingleH1 = parseBool(r.FormValue("force_single_h1"), opts.ForceSingleH1)
	opts.LogResults = parseBool(r.FormValue("log_results"), false)
	return opts
}

func parseBool(v string, fallback bool) bool {
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
