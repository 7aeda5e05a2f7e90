package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/leapstack-labs/askql/internal/pipeline"
	"github.com/leapstack-labs/askql/pkg/core"
)

// MaxUploadBytes caps the size of an upload body.
const MaxUploadBytes = 32 << 20

var (
	errInvalidJSON = errors.New("Invalid JSON body")
	errNoFile      = errors.New("No file provided")
)

// Handlers provides the HTTP handlers of the API.
type Handlers struct {
	service *pipeline.Service
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *pipeline.Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{service: service, logger: logger}
}

// Ask handles POST /ask.
func (h *Handlers) Ask(w http.ResponseWriter, r *http.Request) {
	var req pipeline.AskRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.service.Ask(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DatasetAsk handles POST /csv/ask.
func (h *Handlers) DatasetAsk(w http.ResponseWriter, r *http.Request) {
	var req pipeline.DatasetAskRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.service.AskDataset(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Upload handles POST /upload with either a multipart "file" field or a
// JSON {filename, content} body.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	req, err := readUpload(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.service.Upload(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Schema handles GET /schema. The optional "table" query parameter filters it.
func (h *Handlers) Schema(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Schema(r.Context(), r.URL.Query().Get("table"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Datasets handles GET /datasets.
func (h *Handlers) Datasets(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Datasets(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readUpload(r *http.Request) (pipeline.UploadRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req pipeline.UploadRequest
		err := decodeJSON(r, &req)
		return req, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return pipeline.UploadRequest{}, core.E(core.KindInput, "", errNoFile)
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return pipeline.UploadRequest{}, core.E(core.KindInput, "", errors.New("failed to read uploaded file"))
	}
	return pipeline.UploadRequest{Filename: header.Filename, Content: string(content)}, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return core.E(core.KindInput, "", errInvalidJSON)
	}
	return nil
}

// fail maps err onto a status code: input errors are 400, anything
// unclassified is 500 with a generic message.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if core.IsKind(err, core.KindInput) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: inputMessage(err)})
		return
	}
	if core.KindOf(err) != core.KindUnknown {
		writeJSON(w, http.StatusOK, errorBody{Error: err.Error()})
		return
	}
	h.logger.Error("request failed",
		slog.String("path", r.URL.Path),
		slog.String("request_id", pipeline.RequestID(r.Context())),
		slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal error"})
}

// inputMessage returns the caller-facing text of an input error.
func inputMessage(err error) string {
	var e *core.Error
	if errors.As(err, &e) && e.Err != nil {
		return strings.TrimSpace(e.Err.Error())
	}
	return err.Error()
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
