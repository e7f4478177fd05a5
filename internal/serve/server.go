// Package serve exposes code generation over a small JSON HTTP API
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/okra-platform/gisgen/internal/codegen"
	"github.com/okra-platform/gisgen/internal/codegen/ops"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/schema"
)

// maxBodyBytes caps generate request bodies
const maxBodyBytes = 16 << 20

// Server provides the generation API
type Server interface {
	Start(ctx context.Context, host string, port int) error
	Handler() http.Handler
}

// SchemaLoader resolves a schema_source reference into a schema. It is only
// called with absolute http(s) URLs.
type SchemaLoader func(ctx context.Context, source string) (*schema.Schema, error)

type server struct {
	registry     *codegen.Registry
	schemaLoader SchemaLoader
	logger       zerolog.Logger
	router       *mux.Router
	server       *http.Server
}

// GenerateRequest is the body of POST /api/v1/generate. Exactly one of
// Schema and SchemaSource must be set.
type GenerateRequest struct {
	Platform     string             `json:"platform"`
	Operations   []string           `json:"operations"`
	Schema       json.RawMessage    `json:"schema,omitempty"`
	SchemaSource string             `json:"schema_source,omitempty"`
	SchemaFilter string             `json:"schema_filter,omitempty"`
	Layers       []string           `json:"layers,omitempty"`
	Connection   *ConnectionRequest `json:"connection,omitempty"`
}

// ConnectionRequest overrides the coordinates embedded in the artifact
type ConnectionRequest struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	DBName string `json:"dbname"`
	User   string `json:"user"`
}

// GenerateResponse carries the artifact and its diagnostics
type GenerateResponse struct {
	Code     string            `json:"code"`
	Warnings []codegen.Warning `json:"warnings"`
	Filename string            `json:"filename"`
}

// DialectInfo describes one registered dialect
type DialectInfo struct {
	target.Capabilities
	Supported []string `json:"supported_operations,omitempty"`
}

// OperationInfo describes one operation and the dialects that render it
type OperationInfo struct {
	ops.Operation
	Dialects []target.Dialect `json:"dialects"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a server over registry. Schema sources are resolved with
// LoadSchema.
func NewServer(registry *codegen.Registry, logger zerolog.Logger) Server {
	return NewServerWithSchemaLoader(registry, logger, LoadSchema)
}

// NewServerWithSchemaLoader creates a server with a custom schema loader
func NewServerWithSchemaLoader(registry *codegen.Registry, logger zerolog.Logger, loader SchemaLoader) Server {
	if registry == nil {
		registry = codegen.DefaultRegistry
	}
	s := &server{
		registry:     registry,
		schemaLoader: loader,
		logger:       logger.With().Str("component", "serve").Logger(),
	}
	s.router = s.routes()
	return s
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/dialects", s.handleDialects).Methods(http.MethodGet)
	api.HandleFunc("/dialects/{dialect}", s.handleDialect).Methods(http.MethodGet)
	api.HandleFunc("/operations", s.handleOperations).Methods(http.MethodGet)
	api.HandleFunc("/operations/{name}", s.handleOperation).Methods(http.MethodGet)
	api.HandleFunc("/generate", s.handleGenerate).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.sendError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.Use(s.logRequests)
	return r
}

// Handler returns the routed API
func (s *server) Handler() http.Handler {
	return s.router
}

// Start serves on host:port until ctx is cancelled. An empty host listens on
// every interface.
func (s *server) Start(ctx context.Context, host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("generation API listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *server) handleDialects(w http.ResponseWriter, _ *http.Request) {
	var out []DialectInfo
	for _, d := range s.registry.Dialects() {
		out = append(out, dialectInfo(d))
	}
	s.sendJSON(w, http.StatusOK, out)
}

func (s *server) handleDialect(w http.ResponseWriter, r *http.Request) {
	d, err := target.Parse(mux.Vars(r)["dialect"])
	if err != nil {
		s.sendError(w, http.StatusNotFound, err.Error())
		return
	}
	s.sendJSON(w, http.StatusOK, dialectInfo(d))
}

func dialectInfo(d target.Dialect) DialectInfo {
	caps, _ := target.Lookup(d)
	info := DialectInfo{Capabilities: caps}
	if caps.Operations {
		for _, name := range ops.Names() {
			if ops.DefaultRegistry.Supports(name, d) {
				info.Supported = append(info.Supported, name)
			}
		}
	}
	return info
}

func (s *server) handleOperations(w http.ResponseWriter, _ *http.Request) {
	grouped := map[ops.Group][]string{
		ops.GroupGeneral: {},
		ops.GroupMassing: {},
	}
	for _, op := range ops.All() {
		grouped[op.Group] = append(grouped[op.Group], op.Name)
	}
	s.sendJSON(w, http.StatusOK, grouped)
}

func (s *server) handleOperation(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	op, ok := ops.Lookup(name)
	if !ok {
		s.sendError(w, http.StatusNotFound, fmt.Sprintf("unknown operation %q", name))
		return
	}
	s.sendJSON(w, http.StatusOK, OperationInfo{
		Operation: op,
		Dialects:  ops.DefaultRegistry.Dialects(name),
	})
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := s.generate(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error().Err(err).Str("platform", req.Platform).Msg("generation failed")
		}
		s.sendError(w, status, err.Error())
		return
	}

	for _, warn := range resp.Warnings {
		s.logger.Warn().Str("operation", warn.Operation).Str("platform", req.Platform).Msg(warn.String())
	}
	s.sendJSON(w, http.StatusOK, resp)
}

var errBadRequest = errors.New("bad request")

func (s *server) generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Platform == "" {
		return nil, fmt.Errorf("%w: platform is required", errBadRequest)
	}

	var sch *schema.Schema
	switch {
	case len(req.Schema) > 0 && req.SchemaSource != "":
		return nil, fmt.Errorf("%w: schema and schema_source are mutually exclusive", errBadRequest)
	case req.SchemaSource != "":
		if _, err := parseSchemaSource(req.SchemaSource); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		loaded, err := s.schemaLoader(ctx, req.SchemaSource)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		sch = loaded
	case len(req.Schema) > 0:
		parsed, err := schema.ParseSchema(req.Schema)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		sch = parsed
	default:
		return nil, fmt.Errorf("%w: schema or schema_source is required", errBadRequest)
	}

	var err error
	if req.SchemaFilter != "" {
		if sch, err = schema.FilterByNamespace(sch, req.SchemaFilter); err != nil {
			return nil, err
		}
	}
	if len(req.Layers) > 0 {
		if sch, err = schema.FilterByQualifiedName(sch, req.Layers); err != nil {
			return nil, err
		}
	}

	var opts target.Options
	if c := req.Connection; c != nil {
		opts.Connection = target.Connection{Host: c.Host, Port: c.Port, DBName: c.DBName, User: c.User}
	}

	res, err := s.registry.Generate(codegen.Request{
		Dialect:    req.Platform,
		Schema:     sch,
		Operations: req.Operations,
		Options:    opts,
	})
	if err != nil {
		return nil, err
	}

	warnings := res.Warnings
	if warnings == nil {
		warnings = []codegen.Warning{}
	}
	return &GenerateResponse{
		Code:     string(res.Code),
		Warnings: warnings,
		Filename: Filename(sch, req.Platform, res.Extension),
	}, nil
}

// Filename names a download as <database>_<platform><ext>
func Filename(s *schema.Schema, platform, ext string) string {
	db := "gis"
	if s != nil && s.Database != "" {
		db = target.SafeVar(s.Database)
	}
	return db + "_" + strings.ToLower(strings.TrimSpace(platform)) + ext
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, codegen.ErrUnknownDialect),
		errors.Is(err, codegen.ErrInvalidOperation),
		errors.Is(err, codegen.ErrInvalidSchema),
		errors.Is(err, schema.ErrNilSchema):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrNoLayersMatched):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, &ErrorResponse{Error: message})
}
