package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/orchestrator"
	"token-launchpad/internal/tokensource"
)

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.StartRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg, err := s.control.Start(r.Context(), req)
	if err != nil {
		s.fail(w, "start", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": orchestrator.StateOf(cfg), "config": cfg})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.control.Stop(r.Context())
	if err != nil {
		s.fail(w, "stop", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": orchestrator.StateOf(cfg), "config": cfg.Redacted()})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.control.Clear(r.Context()); err != nil {
		s.fail(w, "clear", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": orchestrator.StateIdle})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.control.Status(r.Context())
	if err != nil {
		s.fail(w, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	res, err := s.ticker.Tick(r.Context())
	if err != nil {
		s.fail(w, "step", err)
		return
	}
	if res == nil {
		res = &orchestrator.StepResult{Skipped: "step already running"}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessionMu.TryLock() {
		writeJSON(w, http.StatusOK, map[string]any{"reason": "session already running", "continue": false})
		return
	}
	defer s.sessionMu.Unlock()

	res, err := s.session.Run(r.Context())
	if err != nil {
		s.fail(w, "session", err)
		return
	}
	observability.RecordSession(res.Reason, res.Steps, res.Elapsed)
	writeJSON(w, http.StatusOK, res)
}

// tokensResponse is the body of GET /api/tokens.
type tokensResponse struct {
	Candidates      []domain.Candidate `json:"candidates"`
	NextSourceIndex int                `json:"next_source_index"`
	Source          string             `json:"source"`
	Error           string             `json:"error,omitempty"`
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	selector := r.URL.Query().Get("source")
	if selector == "" {
		selector = tokensource.SelectorRotate
	}
	index := 0
	if v := r.URL.Query().Get("index"); v != "" {
		if index, err = strconv.Atoi(v); err != nil || index < 0 {
			writeError(w, http.StatusBadRequest, "index must be a non-negative integer")
			return
		}
	}

	res := s.source.Fetch(r.Context(), selector, filters, index)
	out := tokensResponse{
		Candidates:      res.Candidates,
		NextSourceIndex: res.NextSourceIndex,
		Source:          res.SourceLabel,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	if s.targets == nil {
		writeJSON(w, http.StatusOK, map[string][]string{"agents": {}, "launchpads": {}})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"agents":     s.targets.AgentNames(),
		"launchpads": s.targets.LaunchpadNames(),
	})
}

// DeployRequest is the body of POST /api/deploy.
type DeployRequest struct {
	Candidate domain.Candidate `json:"candidate"`
	Target    domain.Target    `json:"target"`
}

func (r *DeployRequest) validate() error {
	switch {
	case r.Candidate.Name == "" || r.Candidate.Symbol == "":
		return errors.New("candidate name and symbol are required")
	case r.Target.Launchpad == "" || r.Target.Agent == "":
		return errors.New("target launchpad and agent are required")
	case r.Target.Wallet == "":
		return errors.New("target wallet is required")
	}
	if r.Target.Chain == "" {
		r.Target.Chain = domain.ChainAny
	}
	if r.Target.Tax != nil {
		if err := r.Target.Tax.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// handleDeploy runs one manual deployment outside any run. The outcome,
// including generated credentials, is returned to the caller once.
func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var req DeployRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := s.deployer.Deploy(r.Context(), req.Candidate, req.Target)

	if s.notifier != nil && (out.Success || out.Credentials != nil) {
		if err := s.notifier.Notify(r.Context(), req.Candidate, out); err != nil {
			s.logger.Printf("notify: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, out)
}
