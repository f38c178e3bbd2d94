// Package server exposes the dataset views over an HTTP JSON API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/edalens/internal/analysis"
	"github.com/KaramelBytes/edalens/internal/chart"
	"github.com/KaramelBytes/edalens/internal/config"
	"github.com/KaramelBytes/edalens/internal/dataset"
	"github.com/KaramelBytes/edalens/internal/quality"
	"github.com/KaramelBytes/edalens/internal/render"
)

var errSessionNotFound = errors.New("session not found")

// Options configures a Server.
type Options struct {
	Dataset        dataset.Options
	MaxUploadBytes int64
	SessionLimit   int
	PreviewRows    int
	PreviewMaxRows int
	ChartFormat    chart.Format
	// Logf receives one line per request. Nil disables request logging.
	Logf func(format string, args ...any)
}

// OptionsFromConfig maps the global configuration onto server options.
func OptionsFromConfig(c *config.Global) Options {
	format, _ := chart.ParseFormat(c.ChartFormat)
	return Options{
		Dataset:        c.DatasetOptions(),
		MaxUploadBytes: int64(c.MaxUploadMB) << 20,
		SessionLimit:   c.SessionLimit,
		PreviewRows:    c.PreviewRows,
		PreviewMaxRows: c.PreviewMaxRows,
		ChartFormat:    format,
	}
}

type Server struct {
	opt   Options
	store *Store
	mux   *http.ServeMux
}

func New(opt Options) *Server {
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = 32 << 20
	}
	if opt.PreviewRows <= 0 {
		opt.PreviewRows = 5
	}
	if opt.PreviewMaxRows < opt.PreviewRows {
		opt.PreviewMaxRows = 50
	}
	if opt.ChartFormat == "" {
		opt.ChartFormat = chart.FormatJSON
	}
	s := &Server{opt: opt, store: NewStore(opt.SessionLimit), mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/datasets", s.handleUpload)
	s.mux.HandleFunc("GET /api/datasets/{id}", s.withSession(s.handleInfo))
	s.mux.HandleFunc("DELETE /api/datasets/{id}", s.handleDelete)
	s.mux.HandleFunc("GET /api/datasets/{id}/overview", s.withSession(s.handleOverview))
	s.mux.HandleFunc("GET /api/datasets/{id}/unique", s.withSession(s.handleUnique))
	s.mux.HandleFunc("GET /api/datasets/{id}/explore", s.withSession(s.handleExplore))
	s.mux.HandleFunc("GET /api/datasets/{id}/charts/{kind}", s.withSession(s.handleChart))
	s.mux.HandleFunc("GET /api/datasets/{id}/quality", s.withSession(s.handleQuality))
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	if s.opt.Logf == nil {
		return s.mux
	}
	return logRequests(s.mux, s.opt.Logf)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *Session)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.store.Get(r.PathValue("id"))
		if !ok {
			writeError(w, fmt.Errorf("%w: %s", errSessionNotFound, r.PathValue("id")))
			return
		}
		h(w, r, sess)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.Len()})
}

// datasetInfo describes a session's dataset.
type datasetInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	Rows        int       `json:"rows"`
	Columns     []string  `json:"columns"`
	Index       string    `json:"index,omitempty"`
	Numeric     []string  `json:"numeric"`
	Categorical []string  `json:"categorical"`
}

func info(sess *Session) datasetInfo {
	ds := sess.Dataset
	cls := ds.Classification()
	idx, _ := ds.Index()
	return datasetInfo{
		ID:          sess.ID,
		Name:        ds.Name(),
		Created:     sess.Created,
		Rows:        ds.Rows(),
		Columns:     ds.Columns(),
		Index:       idx,
		Numeric:     nonNil(cls.Numeric()),
		Categorical: nonNil(cls.Categorical()),
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opt.MaxUploadBytes))
	if err != nil {
		writeError(w, fmt.Errorf("read upload: %w", err))
		return
	}
	q := r.URL.Query()
	name := q.Get("name")
	data := body
	if mt, params, perr := mime.ParseMediaType(r.Header.Get("Content-Type")); perr == nil && strings.HasPrefix(mt, "multipart/") {
		fname, fdata, err := formFile(body, params["boundary"])
		if err != nil {
			writeError(w, err)
			return
		}
		data = fdata
		if name == "" {
			name = fname
		}
	}
	if name == "" {
		name = "upload.csv"
	}

	opt := s.opt.Dataset
	if v := q.Get("index"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, dataset.Invalid("upload", "index must be a boolean, got %q", v))
			return
		}
		opt.IndexColumn = b
	}
	if v := q.Get("delimiter"); v != "" {
		d, err := config.ParseDelimiter(v)
		if err != nil {
			writeError(w, dataset.Invalid("upload", "%v", err))
			return
		}
		opt.Delimiter = d
	}
	if v := q.Get("sheet"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opt.SheetIndex = n
		} else {
			opt.SheetName = v
		}
	}

	ds, err := dataset.Load(bytes.NewReader(data), name, opt)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, evicted := s.store.Add(ds)
	if evicted != "" && s.opt.Logf != nil {
		s.opt.Logf("session limit reached, evicted %s", evicted)
	}
	writeJSON(w, http.StatusCreated, info(sess))
}

// formFile extracts the "file" part of a multipart body.
func formFile(body []byte, boundary string) (string, []byte, error) {
	if boundary == "" {
		return "", nil, dataset.Invalid("upload", "multipart body without boundary")
	}
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return "", nil, dataset.Invalid("upload", "multipart body has no \"file\" part")
		}
		if err != nil {
			return "", nil, dataset.Invalid("upload", "malformed multipart body: %v", err)
		}
		if part.FormName() != "file" {
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return "", nil, fmt.Errorf("read file part: %w", err)
		}
		return part.FileName(), data, nil
	}
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request, sess *Session) {
	writeJSON(w, http.StatusOK, info(sess))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.Delete(id) {
		writeError(w, fmt.Errorf("%w: %s", errSessionNotFound, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type headView struct {
	Columns []string   `json:"columns"`
	Index   []string   `json:"index,omitempty"`
	Rows    [][]string `json:"rows"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request, sess *Session) {
	n := s.opt.PreviewRows
	if v := r.URL.Query().Get("rows"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > s.opt.PreviewMaxRows {
			writeError(w, dataset.Invalid("overview", "rows must be between 1 and %d, got %q", s.opt.PreviewMaxRows, v))
			return
		}
		n = parsed
	}
	ds := sess.Dataset
	desc, err := analysis.Describe(ds)
	if err != nil {
		writeError(w, err)
		return
	}
	ov, err := analysis.Overview(ds)
	if err != nil {
		writeError(w, err)
		return
	}
	head := headView{Columns: ds.Columns(), Rows: ds.Head(n)}
	if head.Rows == nil {
		head.Rows = [][]string{}
	}
	if _, labels := ds.Index(); len(labels) > 0 {
		head.Index = labels[:len(head.Rows)]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":     ds.Rows(),
		"columns":  ds.Cols(),
		"describe": desc,
		"overview": ov,
		"head":     head,
	})
}

func (s *Server) handleUnique(w http.ResponseWriter, r *http.Request, sess *Session) {
	col := r.URL.Query().Get("column")
	if col == "" {
		writeError(w, dataset.Invalid("unique", "column is required"))
		return
	}
	vals, err := analysis.UniqueValues(sess.Dataset, col)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"column": col, "values": vals})
}

func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request, sess *Session) {
	q := r.URL.Query()
	ds := sess.Dataset
	resp := map[string]any{}
	if col := q.Get("column"); col != "" {
		which := analysis.AllEstimates
		if v := q.Get("estimates"); v != "" {
			which = nil
			for _, name := range strings.Split(v, ",") {
				e, err := analysis.ParseEstimate(name)
				if err != nil {
					writeError(w, err)
					return
				}
				which = append(which, e)
			}
		}
		est, err := analysis.Locate(ds, col, which...)
		if err != nil {
			writeError(w, err)
			return
		}
		resp["estimates"] = est
	}
	missing, err := analysis.MissingTable(ds)
	if err != nil {
		writeError(w, err)
		return
	}
	outliers, err := analysis.OutlierTable(ds)
	if err != nil {
		writeError(w, err)
		return
	}
	resp["missing"] = missing
	resp["outliers"] = outliers
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request, sess *Session) {
	kind, err := chart.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	spec, err := chart.Build(sess.Dataset, chart.Request{
		Kind:        kind,
		Numeric:     q.Get("numeric"),
		Categorical: q.Get("categorical"),
		X:           q.Get("x"),
		Y:           q.Get("y"),
		Color:       q.Get("color"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if q.Get("format") == "png" {
		if err := render.PNG(&buf, kind, spec); err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
		return
	}
	format := s.opt.ChartFormat
	if v := q.Get("format"); v != "" {
		if format, err = chart.ParseFormat(v); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := chart.Encode(&buf, spec, format); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request, sess *Session) {
	var metrics []quality.Metric
	if v := r.URL.Query().Get("metrics"); v != "" && v != "all" {
		for _, name := range strings.Split(v, ",") {
			m, err := quality.ParseMetric(name)
			if err != nil {
				writeError(w, err)
				return
			}
			metrics = append(metrics, m)
		}
	}
	sum := sess.Assessment.Summarize(metrics...)
	if sum.Results == nil {
		sum.Results = []quality.Result{}
	}
	writeJSON(w, http.StatusOK, sum)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, dataset.ErrInvalidInput),
		errors.Is(err, dataset.ErrUnknownColumn),
		errors.Is(err, dataset.ErrEmptyDataset),
		errors.Is(err, chart.ErrUnsupportedChart):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
