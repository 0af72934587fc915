package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/dbcforge/pkg/codec"
	"github.com/ssargent/dbcforge/pkg/dbc"
	"github.com/ssargent/dbcforge/pkg/export"
	"github.com/ssargent/dbcforge/pkg/index"
	"github.com/ssargent/dbcforge/pkg/schema"
	"github.com/ssargent/dbcforge/pkg/storage"
	"github.com/ssargent/dbcforge/pkg/worker"
)

// DefaultMaxUploadSize caps request bodies when ServerConfig leaves it unset.
const DefaultMaxUploadSize = 64 << 20

// Server holds the API server state
type Server struct {
	store   FileStore
	catalog SchemaCatalog
	pool    *worker.Pool
	config  ServerConfig
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer creates a new API server. A nil catalog decodes every file with
// the default schema; nil metrics get a private registry.
func NewServer(store FileStore, catalog SchemaCatalog, pool *worker.Pool, config ServerConfig, metrics *Metrics, logger *slog.Logger) *Server {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if pool == nil {
		pool = worker.NewPool(logger)
	}
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = DefaultMaxUploadSize
	}
	if config.DefaultBuild == "" {
		config.DefaultBuild = schema.DefaultBuild
	}
	return &Server{
		store:   store,
		catalog: catalog,
		pool:    pool,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// requestError marks a failure caused by the request rather than the file.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List()
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}

	files := make([]FileInfo, 0, len(entries))
	for i := range entries {
		info := newFileInfo(&entries[i], nil)
		info.Busy = s.pool.Busy(info.ID)
		files = append(files, info)
	}
	sendSuccess(w, files)
}

// handleUpload stores the request body as a new file once it decodes with
// the schema for ?name= and ?build=.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		sendError(w, "Query parameter name is required", http.StatusBadRequest)
		return
	}
	build := r.URL.Query().Get("build")
	if build == "" {
		build = s.config.DefaultBuild
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxUploadSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, fmt.Sprintf("File exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	f, err := s.decode(name, build, body)
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}

	entry, err := s.store.Create(name, build, body)
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}

	h := f.Header()
	s.logger.Info("file uploaded",
		"id", entry.ID.String(), "name", name, "build", build,
		"records", h.RecordCount, "fields", h.FieldCount)
	sendSuccess(w, newFileInfo(entry, &h))
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	entry, f, err := s.load(chi.URLParam(r, "id"))
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}

	h := f.Header()
	sendSuccess(w, TableResponse{
		File:    newFileInfo(entry, &h),
		Fields:  fieldInfos(f.Schema()),
		Records: rows(f.Table(), nil),
	})
}

// handleFindRecords looks records up by one column, either an exact
// ?value= or an inclusive ?from=&to= range.
func (s *Server) handleFindRecords(w http.ResponseWriter, r *http.Request) {
	entry, f, err := s.load(chi.URLParam(r, "id"))
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}

	q := r.URL.Query()
	positions, err := findRecords(f, q.Get("field"), q)
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}

	h := f.Header()
	sendSuccess(w, TableResponse{
		File:      newFileInfo(entry, &h),
		Fields:    fieldInfos(f.Schema()),
		Positions: positions,
		Records:   rows(f.Table(), positions),
	})
}

func findRecords(f *dbc.File, field string, q url.Values) ([]int, error) {
	i, err := f.Schema().FieldIndex(field)
	if err != nil {
		return nil, &requestError{err: err}
	}
	idx, err := index.Build(f.Table(), f.Schema(), i)
	if err != nil {
		return nil, err
	}

	var positions []int
	switch {
	case q.Has("value"):
		positions, err = idx.Lookup(q.Get("value"))
	case q.Has("from") && q.Has("to"):
		positions, err = idx.Range(q.Get("from"), q.Get("to"))
	default:
		err = errors.New("value, or from and to, is required")
	}
	if err != nil {
		return nil, &requestError{err: err}
	}
	if positions == nil {
		positions = []int{}
	}
	return positions, nil
}

func fieldInfos(sc *schema.Schema) []FieldInfo {
	fields := make([]FieldInfo, sc.FieldCount())
	for i := range fields {
		fields[i] = FieldInfo{
			Name:    sc.FieldName(i),
			Type:    sc.FieldKind(i).String(),
			Visible: sc.Fields[i].Visible,
		}
	}
	return fields
}

// rows converts the records at positions, or every record when positions is
// nil, to JSON values.
func rows(t codec.Table, positions []int) [][]any {
	if positions == nil {
		positions = make([]int, len(t))
		for i := range positions {
			positions[i] = i
		}
	}
	out := make([][]any, len(positions))
	for i, p := range positions {
		row := make([]any, len(t[p]))
		for j, v := range t[p] {
			row[j] = cellValue(v)
		}
		out[i] = row
	}
	return out
}

// handleGetRaw re-encodes the stored file, which also normalises its string
// block.
func (s *Server) handleGetRaw(w http.ResponseWriter, r *http.Request) {
	entry, f, err := s.load(chi.URLParam(r, "id"))
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}

	data, err := s.encode(f)
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.Name+".dbc"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(export.FormatCSV)
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !format.Streamable() {
		sendError(w, fmt.Sprintf("Format %s cannot be streamed", format), http.StatusBadRequest)
		return
	}

	entry, f, err := s.load(chi.URLParam(r, "id"))
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}

	var buf bytes.Buffer
	d := export.Dataset{Name: entry.Name, Source: entry.Name + ".dbc", Schema: f.Schema(), Table: f.Table()}
	if err := export.Write(&buf, format, d); err != nil {
		s.sendFailure(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.Name+format.Ext()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleSetField changes one value and stores the re-encoded file. The field
// may be given by index or by name. A concurrent edit of the same file gets
// 409 instead of waiting.
func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := strconv.Atoi(chi.URLParam(r, "record"))
	if err != nil {
		sendError(w, "Invalid record index", http.StatusBadRequest)
		return
	}

	var req SetFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	var resp SetFieldResponse
	err = s.pool.TryDo(r.Context(), id, func(ctx context.Context) error {
		entry, f, err := s.load(id)
		if err != nil {
			return err
		}

		field, err := f.Schema().FieldIndex(chi.URLParam(r, "field"))
		if err != nil {
			return &requestError{err: err}
		}
		if err := f.Table().SetText(f.Schema(), record, field, req.Value); err != nil {
			return &requestError{err: err}
		}

		data, err := s.encode(f)
		if err != nil {
			return err
		}
		if _, err := s.store.Update(entry.ID, data); err != nil {
			return err
		}

		resp = SetFieldResponse{
			Record: record,
			Field:  field,
			Name:   f.Schema().FieldName(field),
			Value:  cellValue(f.Table()[record][field]),
		}
		return nil
	})
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}

	s.logger.Info("field updated", "id", id, "record", resp.Record, "field", resp.Name)
	sendSuccess(w, resp)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.pool.TryDo(r.Context(), id, func(ctx context.Context) error {
		key, err := storage.ParseID(id)
		if err != nil {
			return err
		}
		return s.store.Delete(key)
	})
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}

	s.logger.Info("file deleted", "id", id)
	sendSuccess(w, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	builds := []string{schema.DefaultBuild}
	if s.catalog != nil {
		builds = s.catalog.Builds(table)
	}
	sendSuccess(w, BuildsResponse{Table: table, Builds: builds})
}

// load reads a stored file and decodes it with the build it was uploaded
// under.
func (s *Server) load(id string) (*storage.Entry, *dbc.File, error) {
	key, err := storage.ParseID(id)
	if err != nil {
		return nil, nil, err
	}
	entry, data, err := s.store.Read(key)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.decode(entry.Name, entry.Build, data)
	if err != nil {
		return nil, nil, err
	}
	return entry, f, nil
}

func (s *Server) decode(name, build string, data []byte) (*dbc.File, error) {
	opts := []dbc.Option{dbc.WithObserver(s.metrics.Observer())}
	if s.catalog != nil {
		opts = append(opts, dbc.WithLoader(s.catalog))
	}

	f := dbc.NewFile(name, build, opts...)
	err := f.Decode(data)
	s.metrics.RecordCodecOperation(dbc.OpDecode, err == nil)
	return f, err
}

func (s *Server) encode(f *dbc.File) ([]byte, error) {
	data, err := f.MarshalBinary()
	s.metrics.RecordCodecOperation(dbc.OpEncode, err == nil)
	return data, err
}

// sendFailure maps an error to its HTTP status and logs server-side faults.
func (s *Server) sendFailure(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFound):
		sendError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, worker.ErrBusy):
		s.metrics.RecordConflict()
		sendError(w, "File is being modified by another request", http.StatusConflict)
	case errors.Is(err, dbc.ErrBadMagic),
		errors.Is(err, dbc.ErrIO),
		errors.Is(err, dbc.ErrCorruptStringOffset),
		errors.Is(err, dbc.ErrSchemaMismatch):
		sendError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		sendError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// cellValue converts a value to its JSON form.
func cellValue(v codec.Value) any {
	switch v.Kind() {
	case schema.KindString:
		return v.Str()
	case schema.KindInt32:
		return v.Int32()
	case schema.KindFloat32:
		f := float64(v.Float32())
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return v.Text()
		}
		return v.Float32()
	default:
		return v.Uint32()
	}
}

func contentType(f export.Format) string {
	switch f {
	case export.FormatCSV:
		return "text/csv; charset=utf-8"
	case export.FormatSQL:
		return "application/sql; charset=utf-8"
	case export.FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
