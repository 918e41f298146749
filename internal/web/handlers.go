package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gridcsv/internal/core"
	"gridcsv/internal/database"
	"gridcsv/internal/logging"
	"gridcsv/internal/workbook"
)

// Preview defaults. Clients can ask for more rows, up to the cap.
const (
	defaultPreviewRows = 20
	maxPreviewRows     = 200
)

// handleHealth reports liveness plus a few gauges.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"activeRuns": s.limiter.Active(),
		"sessions":   s.sessions.Len(),
	})
}

// uploadResponse describes a newly created workbook session.
type uploadResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Sheets []string  `json:"sheets"`
}

// handleUploadWorkbook accepts a multipart upload, decodes it, and
// opens a session for it.
func (s *Server) handleUploadWorkbook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondErrorStatus(w, r, fmt.Errorf("read upload: %w", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	wb, err := workbook.Load(file, header.Filename)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id := s.sessions.Put(wb)
	logging.FromContext(r.Context()).Info("workbook uploaded",
		"workbook_id", id, "name", wb.Name, "sheets", len(wb.Sheets))

	writeJSON(w, http.StatusCreated, uploadResponse{ID: id, Name: wb.Name, Sheets: wb.Sheets})
}

// handleListSheets returns the sheet names of a session's workbook.
func (s *Server) handleListSheets(w http.ResponseWriter, r *http.Request) {
	wb, ok := s.workbookFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sheets": wb.Sheets})
}

// handlePreview returns the leading rows of a sheet so the client can
// build a mapping against real data.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	wb, ok := s.workbookFromRequest(w, r)
	if !ok {
		return
	}

	g, err := wb.Grid(r.URL.Query().Get("sheet"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	limit := defaultPreviewRows
	if v := r.URL.Query().Get("rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondErrorStatus(w, r, fmt.Errorf("invalid rows parameter %q", v), http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxPreviewRows {
		limit = maxPreviewRows
	}

	rows := [][]string(g)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows":      rows,
		"totalRows": g.Rows(),
		"totalCols": g.Cols(),
	})
}

// generateRequest selects the template for a run: either a stored
// template by ID or an inline document. Sheet overrides the template's
// sheet when set.
type generateRequest struct {
	TemplateID *uuid.UUID      `json:"templateId,omitempty"`
	Template   json.RawMessage `json:"template,omitempty"`
	Sheet      string          `json:"sheet,omitempty"`
}

// generateResponse carries the run output. CSV is included so clients
// that do not request a download still get the encoded document.
type generateResponse struct {
	Headers     []string              `json:"headers"`
	Rows        [][]string            `json:"rows"`
	RecordCount int                   `json:"recordCount"`
	Warnings    []string              `json:"warnings,omitempty"`
	Stats       *core.AssignmentStats `json:"stats,omitempty"`
	CSV         string                `json:"csv"`
}

// handleGenerate runs a mapping template against a session workbook.
// With ?download=1 the response is the CSV document itself.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	wb, ok := s.workbookFromRequest(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorStatus(w, r, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)
		return
	}

	tpl, templateID, err := s.resolveTemplate(r, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sheet := tpl.Sheet
	if req.Sheet != "" {
		sheet = req.Sheet
	}
	g, err := wb.Grid(sheet)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	csvDoc, res, err := core.GenerateCSV(g, tpl)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.recordRun(r, database.RunParams{
		TemplateID:   templateID,
		WorkbookName: wb.Name,
		Sheet:        sheet,
		Mode:         tpl.Mode,
		RecordCount:  len(res.Records),
		Warnings:     res.Warnings,
		Stats:        marshalStats(res.Stats),
	})

	logging.FromContext(r.Context()).Info("generation complete",
		"workbook", wb.Name, "mode", tpl.Mode,
		"records", len(res.Records), "warnings", len(res.Warnings))

	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="output.csv"`)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(csvDoc))
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Headers:     res.Headers,
		Rows:        res.Rows(),
		RecordCount: len(res.Records),
		Warnings:    res.Warnings,
		Stats:       res.Stats,
		CSV:         csvDoc,
	})
}

// resolveTemplate loads the stored template or parses the inline one.
func (s *Server) resolveTemplate(r *http.Request, req generateRequest) (*core.Template, *uuid.UUID, error) {
	if req.TemplateID != nil {
		rec, err := s.store.GetTemplate(r.Context(), *req.TemplateID)
		if err != nil {
			return nil, nil, err
		}
		tpl, err := core.ParseTemplate(rec.Document)
		if err != nil {
			return nil, nil, err
		}
		return tpl, req.TemplateID, nil
	}
	if len(req.Template) == 0 {
		return nil, nil, fmt.Errorf("%w: request names no template", core.ErrInvalidTemplate)
	}
	tpl, err := core.ParseTemplate(req.Template)
	if err != nil {
		return nil, nil, err
	}
	return tpl, nil, nil
}

// recordRun writes the run to history. Failures are logged, not
// surfaced: history must never block a successful generation.
func (s *Server) recordRun(r *http.Request, params database.RunParams) {
	if _, err := s.store.RecordRun(r.Context(), params); err != nil {
		logging.FromContext(r.Context()).Error("record run failed", "error", err)
	}
}

func marshalStats(stats *core.AssignmentStats) json.RawMessage {
	if stats == nil {
		return nil
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return nil
	}
	return data
}

// handleCloseWorkbook discards a session.
func (s *Server) handleCloseWorkbook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "workbookID"))
	if err != nil {
		s.respondErrorStatus(w, r, fmt.Errorf("invalid workbook id: %w", err), http.StatusBadRequest)
		return
	}
	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// compareRequest carries the two CSV documents to diff.
type compareRequest struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// handleCompare returns the multiset difference of two CSV documents.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorStatus(w, r, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)
		return
	}

	res, err := core.CompareCSV(req.Left, req.Right)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// dedupeRequest carries the CSV document to scan for duplicate rows.
type dedupeRequest struct {
	CSV string `json:"csv"`
}

// handleDedupe reports duplicate rows in a CSV document.
func (s *Server) handleDedupe(w http.ResponseWriter, r *http.Request) {
	var req dedupeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorStatus(w, r, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)
		return
	}

	rows, err := core.DecodeCSV(req.CSV)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(rows) == 0 {
		s.respondErrorStatus(w, r, fmt.Errorf("%w: missing header row", core.ErrBadCSV), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, core.FindDuplicates(rows[0], rows[1:]))
}

// templateRequest is the create/update payload for stored templates.
type templateRequest struct {
	Name     string          `json:"name"`
	Document json.RawMessage `json:"document"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.ListTemplates(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeTemplateRequest(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rec, err := s.store.CreateTemplate(r.Context(), req.Name, req.Document)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("template created", "template_id", rec.ID, "name", rec.Name)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.templateIDFromRequest(w, r)
	if !ok {
		return
	}
	rec, err := s.store.GetTemplate(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.templateIDFromRequest(w, r)
	if !ok {
		return
	}
	req, err := s.decodeTemplateRequest(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rec, err := s.store.UpdateTemplate(r.Context(), id, req.Name, req.Document)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("template updated", "template_id", rec.ID, "name", rec.Name)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.templateIDFromRequest(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteTemplate(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("template deleted", "template_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// decodeTemplateRequest reads and validates a template payload. The
// document must parse as a mapping template before it is stored.
func (s *Server) decodeTemplateRequest(r *http.Request) (*templateRequest, error) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidTemplate, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: template name is required", core.ErrInvalidTemplate)
	}
	req.Name = strings.TrimSpace(req.Name)
	if _, err := core.ParseTemplate(req.Document); err != nil {
		return nil, err
	}
	return &req, nil
}

// handleListRuns returns run history, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 50)
	offset := intQuery(r, "offset", 0)

	runs, err := s.store.ListRuns(r.Context(), limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// workbookFromRequest resolves the {workbookID} route parameter to a
// live session, writing the error response itself on failure.
func (s *Server) workbookFromRequest(w http.ResponseWriter, r *http.Request) (*workbook.Workbook, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "workbookID"))
	if err != nil {
		s.respondErrorStatus(w, r, fmt.Errorf("invalid workbook id: %w", err), http.StatusBadRequest)
		return nil, false
	}
	wb, ok := s.sessions.Get(id)
	if !ok {
		s.respondErrorStatus(w, r, fmt.Errorf("workbook session %s not found or expired", id), http.StatusNotFound)
		return nil, false
	}
	return wb, true
}

func (s *Server) templateIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		s.respondErrorStatus(w, r, fmt.Errorf("invalid template id: %w", err), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
