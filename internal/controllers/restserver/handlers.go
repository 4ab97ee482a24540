package restserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/chrissnell/basinview/internal/artifact"
	"github.com/chrissnell/basinview/internal/bundle"
	"github.com/chrissnell/basinview/internal/changetable"
	"github.com/chrissnell/basinview/internal/log"
	"github.com/chrissnell/basinview/internal/session"
	"github.com/chrissnell/basinview/pkg/responseformat"
	"github.com/gorilla/mux"
)

var errNotOffered = errors.New("basin is not offered")

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// sendError sends an error response in the requested format
func (h *Handlers) sendError(w http.ResponseWriter, req *http.Request, statusCode int, message string, err error) {
	errorResponse := map[string]interface{}{
		"error":     message,
		"status":    statusCode,
		"timestamp": time.Now().Unix(),
	}

	if err != nil {
		errorResponse["details"] = err.Error()
	}

	if encErr := h.formatter.WriteResponseWithStatus(w, req, statusCode, errorResponse, nil); encErr != nil {
		log.Errorf("error encoding error response: %v", encErr)
	}
}

// statusFor maps a selection or artifact error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, artifact.ErrArtifactNotFound):
		return http.StatusNotFound
	case errors.Is(err, artifact.ErrInvalidBasinID),
		errors.Is(err, artifact.ErrUnknownDataSource),
		errors.Is(err, artifact.ErrUnknownKind),
		errors.Is(err, errNotOffered):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ServeIndexTemplate renders the map page
func (h *Handlers) ServeIndexTemplate(w http.ResponseWriter, req *http.Request) {
	view, err := htmltemplate.New("index.html.tmpl").ParseFS(h.controller.FS, "index.html.tmpl")
	if err != nil {
		log.Errorf("error parsing index template: %v", err)
		http.Error(w, "map page not available", http.StatusInternalServerError)
		return
	}

	labels := h.controller.restConfig.TableLabels
	templateData := struct {
		PageTitle     string
		OldClassLabel string
		NewClassLabel string
		CountLabel    string
	}{
		PageTitle:     h.controller.restConfig.PageTitle,
		OldClassLabel: labels.OldClass,
		NewClassLabel: labels.NewClass,
		CountLabel:    labels.CellCount,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Execute(w, templateData); err != nil {
		log.Errorf("error executing index template: %v", err)
	}
}

// GetSources lists every selectable data source with its basins
func (h *Handlers) GetSources(w http.ResponseWriter, req *http.Request) {
	cat := h.controller.viewer.Catalog

	resp := SourcesResponse{Sources: cat.Sources()}
	resp.Default, _ = cat.Default()

	headers := map[string]string{"Cache-Control": "max-age=300"}
	if err := h.formatter.WriteResponse(w, req, resp, headers); err != nil {
		log.Errorf("error encoding sources: %v", err)
	}
}

// Select applies a basin selection to the caller's session
func (h *Handlers) Select(w http.ResponseWriter, req *http.Request) {
	s := sessionFromContext(req)

	var request SelectRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		h.sendError(w, req, http.StatusBadRequest, "Invalid JSON payload", err)
		return
	}

	source, err := h.resolveSource(request.Source)
	if err != nil {
		h.sendError(w, req, statusFor(err), "Invalid data source", err)
		return
	}

	basin := artifact.BasinID(request.Basin)
	if basin != "" && !h.controller.viewer.Catalog.Contains(source, basin) {
		err := fmt.Errorf("%w: %s in %s", errNotOffered, basin, source)
		h.sendError(w, req, http.StatusBadRequest, "Invalid basin", err)
		return
	}

	view, err := s.Select(source, basin)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Errorf("error selecting basin %s in %s: %v", basin, source, err)
		}
		h.sendError(w, req, status, "Unable to select basin", err)
		return
	}

	if err := h.formatter.WriteResponse(w, req, h.buildSelectResponse(view), nil); err != nil {
		log.Errorf("error encoding selection: %v", err)
	}
}

// GetViewport returns the caller's current viewport
func (h *Handlers) GetViewport(w http.ResponseWriter, req *http.Request) {
	s := sessionFromContext(req)

	headers := map[string]string{"Cache-Control": "no-store"}
	if err := h.formatter.WriteResponse(w, req, s.Viewport(), headers); err != nil {
		log.Errorf("error encoding viewport: %v", err)
	}
}

// EndSession discards the caller's session. The next request starts a new one.
func (h *Handlers) EndSession(w http.ResponseWriter, req *http.Request) {
	s := sessionFromContext(req)
	h.controller.viewer.Sessions.End(s.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// GetArtifact serves the raw bytes of one basin artifact
func (h *Handlers) GetArtifact(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	source, err := artifact.ParseDataSource(vars["source"])
	if err != nil {
		h.sendError(w, req, http.StatusBadRequest, "Invalid data source", err)
		return
	}

	kind, err := artifact.ParseKind(vars["kind"])
	if err != nil {
		h.sendError(w, req, http.StatusBadRequest, "Invalid artifact kind", err)
		return
	}

	basin := artifact.BasinID(vars["basin"])
	if !h.controller.viewer.Catalog.Contains(source, basin) {
		err := fmt.Errorf("%w: %s in %s", errNotOffered, basin, source)
		h.sendError(w, req, http.StatusBadRequest, "Invalid basin", err)
		return
	}

	data, err := h.controller.viewer.Aggregator.LoadArtifact(source, basin, kind)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Errorf("error loading %s for basin %s: %v", kind, basin, err)
		}
		h.sendError(w, req, status, "Unable to load artifact", err)
		return
	}

	// The change table is served as labelled rows unless the CSV itself is asked for
	if kind == artifact.ChangeTable && req.URL.Query().Get("format") != "csv" {
		h.writeTable(w, req, basin, data)
		return
	}

	w.Header().Set("Content-Type", kind.ContentType())
	w.Header().Set("Cache-Control", "max-age=3600")
	http.ServeContent(w, req, string(basin)+"."+kind.String(), time.Time{}, bytes.NewReader(data))
}

func (h *Handlers) writeTable(w http.ResponseWriter, req *http.Request, basin artifact.BasinID, data []byte) {
	rows, err := changetable.CSVReader{}.ReadTable(data)
	if err != nil {
		log.Errorf("error reading change table for basin %s: %v", basin, err)
		h.sendError(w, req, http.StatusInternalServerError, "Unable to read change table", err)
		return
	}

	resp := TableResponse{
		Columns: h.tableColumns(),
		Rows:    rows,
	}

	headers := map[string]string{"Cache-Control": "max-age=3600"}
	if err := h.formatter.WriteResponse(w, req, resp, headers); err != nil {
		log.Errorf("error encoding change table: %v", err)
	}
}

func (h *Handlers) resolveSource(name string) (artifact.DataSource, error) {
	if name == "" {
		if source, ok := h.controller.viewer.Catalog.Default(); ok {
			return source, nil
		}
		return 0, fmt.Errorf("%w: no data sources configured", artifact.ErrUnknownDataSource)
	}
	return artifact.ParseDataSource(name)
}

func (h *Handlers) buildSelectResponse(view *session.View) SelectResponse {
	b := view.Bundle
	resp := SelectResponse{
		Viewport: view.Viewport,
		Source:   b.Source,
		Basin:    b.BasinID,
		Boundary: json.RawMessage(b.Boundary.Raw),
		Summary:  view.Summary,
	}

	if b.BasinID.IsAll() {
		return resp
	}

	resp.Table = &TableResponse{
		Columns: h.tableColumns(),
		Rows:    b.ChangeTable,
	}
	resp.Image = mediaResponse(b, artifact.ChangeImage, b.ChangeImage)
	resp.Timelapse = mediaResponse(b, artifact.Timelapse, b.Timelapse)

	switch {
	case view.Statistic != nil:
		resp.Statistic = view.Statistic
		resp.StatisticText = view.Statistic.String()
	case view.StatisticError != nil:
		resp.StatisticError = view.StatisticError.Error()
	}

	return resp
}

func (h *Handlers) tableColumns() []string {
	labels := h.controller.restConfig.TableLabels
	return []string{labels.OldClass, labels.NewClass, labels.CellCount}
}

func mediaResponse(b *bundle.Bundle, kind artifact.Kind, o bundle.Optional) *MediaResponse {
	m := &MediaResponse{Status: o.Status, Reason: o.Reason}
	if o.Available() {
		m.URL = artifactURL(b.Source, b.BasinID, kind)
	}
	return m
}

func artifactURL(source artifact.DataSource, basin artifact.BasinID, kind artifact.Kind) string {
	return fmt.Sprintf("/api/sources/%s/basins/%s/%s",
		url.PathEscape(source.String()), url.PathEscape(string(basin)), kind)
}
