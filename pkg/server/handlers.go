package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"mercator-hq/ladder/pkg/engine"
	"mercator-hq/ladder/pkg/telemetry/logging"
	"mercator-hq/ladder/pkg/telemetry/tracing"
)

// EvaluateRequest is the body of POST /v1/ladders/{name}/evaluate.
// Exactly one of Input or Raw must be set. Raw is parsed according to the
// ladder's declared input type, as the CLI does.
type EvaluateRequest struct {
	Input json.RawMessage `json:"input,omitempty"`
	Raw   *string         `json:"raw,omitempty"`
}

// LaddersResponse is the body of GET /v1/ladders.
type LaddersResponse struct {
	Ladders []engine.LadderInfo `json:"ladders"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ctx := logging.WithLadder(r.Context(), name)

	var req EvaluateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorTypeInvalidRequest, CodeBodyTooLarge, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, CodeInvalidJSON, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	input, err := s.decodeInput(name, &req)
	if err != nil {
		s.writeEvaluationError(w, err)
		return
	}

	ctx, span := s.opts.Tracer.Start(ctx, "ladder.evaluate")
	defer span.End()

	decision, err := s.evaluator.Evaluate(ctx, name, input)
	tracing.SetStatus(span, err)
	if err != nil {
		s.logger.DebugContext(ctx, "evaluation failed", append(logFields(ctx), "error", err)...)
		s.writeEvaluationError(w, err)
		return
	}
	tracing.SetDecisionAttributes(span, decision.ID, decision.Ladder, decision.RuleName, decision.RuleIndex, decision.Defaulted)

	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) decodeInput(name string, req *EvaluateRequest) (interface{}, error) {
	hasInput := len(req.Input) > 0
	switch {
	case hasInput && req.Raw != nil:
		return nil, errBadRequest("set either input or raw, not both")
	case req.Raw != nil:
		ladder, ok := s.evaluator.Ladder(name)
		if !ok {
			return nil, &engine.LadderNotFoundError{Name: name}
		}
		return engine.ParseInput(*req.Raw, ladder.Definition().Input.Type)
	case hasInput:
		var v interface{}
		dec := json.NewDecoder(bytes.NewReader(req.Input))
		if err := dec.Decode(&v); err != nil && err != io.EOF {
			return nil, errBadRequest(fmt.Sprintf("invalid input: %v", err))
		}
		return v, nil
	default:
		return nil, errBadRequest("input is required")
	}
}

func (s *Server) handleListLadders(w http.ResponseWriter, r *http.Request) {
	ladders := s.evaluator.Ladders()
	if ladders == nil {
		ladders = []engine.LadderInfo{}
	}
	writeJSON(w, http.StatusOK, LaddersResponse{Ladders: ladders})
}

func (s *Server) handleGetLadder(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ladder, ok := s.evaluator.Ladder(name)
	if !ok {
		s.writeEvaluationError(w, &engine.LadderNotFoundError{Name: name})
		return
	}
	writeJSON(w, http.StatusOK, ladder.Info())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
