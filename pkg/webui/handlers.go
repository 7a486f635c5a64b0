package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-questionnaire/pkg/collector"
	"github.com/goliatone/go-questionnaire/pkg/importer"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/navigation"
	"github.com/goliatone/go-questionnaire/pkg/render"
	"github.com/goliatone/go-questionnaire/pkg/validation"
)

// SchemaResponse is the JSON reply of the schema replacement routes.
type SchemaResponse struct {
	OK       bool                     `json:"ok"`
	Replaced bool                     `json:"replaced"`
	SchemaID string                   `json:"schemaId,omitempty"`
	Error    string                   `json:"error,omitempty"`
	Issues   []validation.SchemaIssue `json:"issues,omitempty"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.sessionFor(w, r)
	view := render.Build(sess.Snapshot(), render.WithEvaluator(sess.Evaluator()), render.WithPayloadPreview())

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	out, contentType, err := s.registry.Render(r.Context(), format, view, render.RenderOptions{
		Action: r.URL.Path,
		Hidden: []render.HiddenField{render.SessionField(sess.ID())},
	})
	if err != nil {
		if !s.registry.Has(format) && format != "" {
			http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusNotFound)
			return
		}
		s.logger.Error("webui: render", "session", sess.ID(), "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(out); err != nil {
		s.logger.Debug("webui: write response", "error", err)
	}
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, fmt.Sprintf("parse form: %v", err), http.StatusBadRequest)
		return
	}
	sess, fromCookie := s.sessionFor(w, r)

	touched := applyForm(sess, r.PostForm)
	sess.MarkTouched(touched...)

	ctrl := s.controller(sess)
	action := r.PostForm.Get("action")
	if err := dispatch(r.Context(), ctrl, action, r.UserAgent()); err != nil {
		s.logger.Warn("webui: action failed", "session", sess.ID(), "action", action, "error", err)
		if errors.Is(err, ErrInvalidAction) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	target := r.URL.Path
	if !fromCookie {
		target += "?" + url.Values{render.SessionFieldName: {sess.ID()}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// dispatch runs one button action. An empty action only keeps the posted
// values.
func dispatch(ctx context.Context, ctrl *navigation.Controller, action, userAgent string) error {
	sess := ctrl.Session()
	switch {
	case action == "":
		return nil
	case action == "next":
		ctrl.GoNext()
	case action == "prev":
		ctrl.GoPrev()
	case action == "save":
		ctrl.Save(ctx)
	case action == "submit":
		ctrl.SubmitWithMeta(ctx, map[string]any{"userAgent": userAgent})
	case strings.HasPrefix(action, "goto:"):
		i, err := strconv.Atoi(strings.TrimPrefix(action, "goto:"))
		if err != nil {
			return fmt.Errorf("%w %q", ErrInvalidAction, action)
		}
		ctrl.JumpTo(i)
	case strings.HasPrefix(action, "add:"):
		_, err := sess.AppendItem(strings.TrimPrefix(action, "add:"))
		return err
	case strings.HasPrefix(action, "remove:"):
		rest := strings.TrimPrefix(action, "remove:")
		cut := strings.LastIndex(rest, ":")
		if cut < 0 {
			return fmt.Errorf("%w %q", ErrInvalidAction, action)
		}
		index, err := strconv.Atoi(rest[cut+1:])
		if err != nil {
			return fmt.Errorf("%w %q", ErrInvalidAction, action)
		}
		return sess.RemoveItem(rest[:cut], index)
	default:
		return fmt.Errorf("%w %q", ErrInvalidAction, action)
	}
	return nil
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	schema, present, err := decodeSchema(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, SchemaResponse{Error: err.Error()})
		return
	}
	if !present {
		writeJSON(w, http.StatusOK, SchemaResponse{OK: true})
		return
	}
	if result := validation.ValidateSchema(r.Context(), nil, raw); !result.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, SchemaResponse{Error: result.Issues[0].Message, Issues: result.Issues})
		return
	}
	s.replace(w, r, schema)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	schema, err := importer.FromQQDocs(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, SchemaResponse{Error: err.Error()})
		return
	}
	if err := schema.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, SchemaResponse{Error: err.Error()})
		return
	}
	s.replace(w, r, schema)
}

// replace swaps the caller's schema and makes it the default for new
// sessions.
func (s *Server) replace(w http.ResponseWriter, r *http.Request, schema model.Schema) {
	sess, _ := s.sessionFor(w, r)
	replaced := sess.ReplaceSchema(r.Context(), schema)
	if replaced {
		s.setSchema(schema)
	}
	writeJSON(w, http.StatusOK, SchemaResponse{OK: true, Replaced: replaced, SchemaID: schema.ID})
}

// decodeSchema reads a schema upload. A document without a sections key is
// reported as absent so the caller can ignore it. Structural checks are left
// to the caller.
func decodeSchema(raw []byte) (model.Schema, bool, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.Schema{}, false, fmt.Errorf("webui: decode schema: %w", err)
	}
	if _, ok := doc["sections"]; !ok {
		return model.Schema{}, false, nil
	}
	var schema model.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return model.Schema{}, false, fmt.Errorf("webui: decode schema: %w", err)
	}
	if schema.Sections == nil {
		return model.Schema{}, false, nil
	}
	return schema, true, nil
}

func (s *Server) handlePayload(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.sessionFor(w, r)
	payload, ok := sess.LastPayload()
	if !ok {
		http.Error(w, "no payload yet", http.StatusNotFound)
		return
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		s.logger.Error("webui: encode payload", "session", sess.ID(), "error", err)
		http.Error(w, "encode payload", http.StatusInternalServerError)
		return
	}

	id := collector.SanitizeID(payload.SchemaID)
	if id == "" {
		id = "submission"
	}
	name := collector.ArtifactName(id, payload.SubmittedAt)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(body)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxSchemaBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, SchemaResponse{Error: "document too large"})
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, SchemaResponse{Error: err.Error()})
		return nil, false
	}
	return raw, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
