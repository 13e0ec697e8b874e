package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/jsontree/pkg/errors"
	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/pipeline"
	"github.com/matzehuels/jsontree/pkg/session"
)

var errNotFound = errors.New(errors.ErrCodeNotFound, "route not found")

// contentTypes maps output formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:     "image/svg+xml",
	pipeline.FormatPNG:     "image/png",
	pipeline.FormatPDF:     "application/pdf",
	pipeline.FormatJSON:    "application/json",
	pipeline.FormatDOT:     "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatMermaid: "text/plain; charset=utf-8",
}

// =============================================================================
// Response Types
// =============================================================================

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SessionResponse describes a session.
type SessionResponse struct {
	ID        string           `json:"id"`
	Layout    graph.Layout     `json:"layout"`
	Search    *session.Outcome `json:"search,omitempty"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// SearchRequest is the body of a session search.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse reports a search outcome and the updated layout.
type SearchResponse struct {
	Status  string       `json:"status"`
	Query   string       `json:"query"`
	Message string       `json:"message,omitempty"`
	NodeID  string       `json:"node_id,omitempty"`
	Path    string       `json:"path,omitempty"`
	Layout  graph.Layout `json:"layout"`
}

func newSessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{ID: s.ID, Layout: s.Layout, Search: s.Search, ExpiresAt: s.ExpiresAt}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}

	t, err := s.runner.BuildTree(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, hit, err := s.runner.ComputeLayoutWithCacheInfo(r.Context(), t, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l.Style = opts.Style
	setCacheHeader(w, hit)
	s.writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts.Formats = []string{format}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	setCacheHeader(w, res.CacheInfo.RenderHit)
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Artifacts[format])))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	doc, filename, err := s.readDocument(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.sessions.Create(r.Context(), doc, filename)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+sess.ID)
	s.writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleReplaceSession(w http.ResponseWriter, r *http.Request) {
	doc, filename, err := s.readDocument(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.sessions.Replace(r.Context(), chi.URLParam(r, "id"), doc, filename)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidJSON, err, "decode search request"))
		return
	}
	if err := errors.ValidateQuery(req.Query); err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, res, err := s.sessions.Search(r.Context(), chi.URLParam(r, "id"), req.Query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SearchResponse{
		Status:  res.Status.String(),
		Query:   res.Query,
		Message: res.Message(),
		NodeID:  res.NodeID,
		Path:    res.Path,
		Layout:  sess.Layout,
	})
}

// =============================================================================
// Request Parsing
// =============================================================================

// readDocument reads the request body, bounded by the configured size
// limit, and derives a filename that selects the decoder.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	limit := s.defaults.MaxBytes
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, "", errors.New(errors.ErrCodeTooLarge, "document exceeds %d bytes", limit)
		}
		return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if strings.Contains(mt, "yaml") {
			filename = "document.yaml"
		}
	}
	return body, filename, nil
}

// requestOptions merges query parameters over the server defaults.
func (s *Server) requestOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	opts := s.defaults
	opts.Formats = nil

	doc, filename, err := s.readDocument(w, r)
	if err != nil {
		return opts, err
	}
	opts.Document = doc
	opts.Filename = filename

	q := r.URL.Query()
	if v := q.Get("viz_type"); v != "" {
		opts.VizType = v
	}
	if v := q.Get("style"); v != "" {
		opts.Style = v
	}
	opts.Highlight = q.Get("highlight")
	if err := errors.ValidateQuery(opts.Highlight); err != nil {
		return opts, err
	}
	opts.Detailed = q.Get("detailed") == "true"
	opts.Refresh = q.Get("refresh") == "true"

	for name, dst := range map[string]*float64{"h_spacing": &opts.HSpacing, "v_spacing": &opts.VSpacing, "scale": &opts.Scale} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", name, v)
		}
		*dst = f
	}
	return opts, nil
}

// =============================================================================
// Responses
// =============================================================================

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

// writeError maps err onto an HTTP status and an ErrorResponse. Internal
// errors are logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case stderrors.Is(err, session.ErrNotFound):
		err = errors.Wrap(errors.ErrCodeSessionNotFound, err, "session not found")
	case stderrors.Is(err, session.ErrInvalidID):
		err = errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid session id")
	}

	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" || (status >= http.StatusInternalServerError && code != errors.ErrCodeUnsupported) {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Header.Get(RequestIDHeader),
			"error", err)
		code = errors.ErrCodeInternal
		msg = fmt.Sprintf("internal error (request %s)", r.Header.Get(RequestIDHeader))
	}
	s.writeJSON(w, status, ErrorResponse{Error: string(code), Message: msg})
}
