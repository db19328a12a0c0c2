package tracker

// HTTP handlers for the pipeline service.
//
// The caller's role comes from the body when present, otherwise from the
// x-user-role header (TA, HiringManager, TAManager). Missing means TA.
//
// Routes:
//
//	GET  /health
//	GET  /jobs                             → job openings
//	POST /jobs/{id}/ta                     → allocate a TA
//	GET  /candidates?jobId=&status=&q=     → worklist
//	POST /candidates                       → add a candidate
//	GET  /candidates/counts?jobId=         → worklist tab counts
//	GET  /candidates/{id}                  → journey view
//	POST /candidates/{id}/confirm          → confirm a stage form
//	POST /candidates/{id}/hm-feedback      → HM feedback, no status change
//	POST /candidates/{id}/status           → move to a list marker
//	POST /candidates/{id}/drop             → disqualify with a reason
//	POST /candidates/{id}/move             → move to another job opening
//	GET  /candidates/{id}/handoff          → hand-off summary
//	GET  /candidates/{id}/contract         → employment contract
//	GET  /candidates/{id}/ceo-triggers     → advisory CEO-trigger hits
//	/settings/...                          → see settingsRoutes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/smarthow-source/ATS-design-concept/internal/pipeline"
	"github.com/smarthow-source/ATS-design-concept/internal/settings"
)

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler exposes a Service over HTTP/JSON.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log.Named("http")}
}

// RegisterRoutes mounts every route on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		jsonOK(w, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/jobs", h.handleJobs)
	mux.HandleFunc("/jobs/", h.handleJobAction)
	mux.HandleFunc("/candidates", h.handleCandidates)
	mux.HandleFunc("/candidates/", h.handleCandidateAction)
	mux.HandleFunc("/settings/", h.handleSettings)
}

// ─── Route dispatch ──────────────────────────────────────────────────────────

func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jobs, err := h.svc.ListJobs(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, jobs)
}

// handleJobAction handles GET /jobs/{id} and POST /jobs/{id}/ta
func (h *Handler) handleJobAction(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)
	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		job, err := h.svc.GetJob(r.Context(), parts[1])
		if err != nil {
			h.fail(w, err)
			return
		}
		jsonOK(w, job)
	case len(parts) == 3 && parts[2] == "ta" && r.Method == http.MethodPost:
		var body struct {
			TA string `json:"ta"`
		}
		if !decode(w, r, &body) {
			return
		}
		job, err := h.svc.AssignTA(r.Context(), parts[1], body.TA)
		if err != nil {
			h.fail(w, err)
			return
		}
		jsonOK(w, job)
	default:
		jsonError(w, "not found", http.StatusNotFound)
	}
}

// handleCandidates handles GET and POST /candidates
func (h *Handler) handleCandidates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		list, err := h.svc.ListCandidates(r.Context(), Filter{
			JobID:  q.Get("jobId"),
			Status: q.Get("status"),
			Query:  q.Get("q"),
		})
		if err != nil {
			h.fail(w, err)
			return
		}
		jsonOK(w, list)
	case http.MethodPost:
		var in NewCandidate
		if !decode(w, r, &in) {
			return
		}
		c, err := h.svc.AddCandidate(r.Context(), in)
		if err != nil {
			h.fail(w, err)
			return
		}
		jsonStatus(w, http.StatusCreated, c)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCandidateAction handles /candidates/counts and /candidates/{id}[/{action}]
func (h *Handler) handleCandidateAction(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || len(parts) > 3 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	id := parts[1]

	if len(parts) == 2 {
		if r.Method != http.MethodGet {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if id == "counts" {
			h.stageCounts(w, r)
			return
		}
		j, err := h.svc.Journey(r.Context(), id)
		if err != nil {
			h.fail(w, err)
			return
		}
		jsonOK(w, j)
		return
	}

	action := parts[2]
	switch action {
	case "handoff", "contract", "ceo-triggers":
		if r.Method != http.MethodGet {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
	default:
		if r.Method != http.MethodPost {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
	}

	switch action {
	case "confirm":
		h.confirm(w, r, id)
	case "hm-feedback":
		h.hmFeedback(w, r, id)
	case "status":
		h.changeStatus(w, r, id)
	case "drop":
		h.drop(w, r, id)
	case "move":
		h.move(w, r, id)
	case "handoff":
		h.handOff(w, r, id)
	case "contract":
		h.contract(w, r, id)
	case "ceo-triggers":
		h.ceoTriggers(w, r, id)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

// ─── Candidate handlers ──────────────────────────────────────────────────────

func (h *Handler) stageCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.StageCounts(r.Context(), r.URL.Query().Get("jobId"))
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, counts)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Stage string          `json:"stage"`
		Form  json.RawMessage `json:"form"`
		Role  string          `json:"role"`
	}
	if !decode(w, r, &body) {
		return
	}
	role, ok := callerRole(w, r, body.Role)
	if !ok {
		return
	}
	out, err := h.svc.ConfirmStage(r.Context(), id, body.Stage, body.Form, role)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, out)
}

func (h *Handler) hmFeedback(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Form pipeline.HMInterviewForm `json:"form"`
		Role string                   `json:"role"`
	}
	if !decode(w, r, &body) {
		return
	}
	role, ok := callerRole(w, r, body.Role)
	if !ok {
		return
	}
	out, err := h.svc.SubmitHMFeedback(r.Context(), id, body.Form, role)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, out)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Status string `json:"status"`
		Role   string `json:"role"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Status == "" {
		jsonError(w, "body must contain status", http.StatusBadRequest)
		return
	}
	role, ok := callerRole(w, r, body.Role)
	if !ok {
		return
	}
	out, err := h.svc.ChangeStatus(r.Context(), id, body.Status, role)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, out)
}

func (h *Handler) drop(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Reason string `json:"reason"`
		Notes  string `json:"notes"`
		Role   string `json:"role"`
	}
	if !decode(w, r, &body) {
		return
	}
	role, ok := callerRole(w, r, body.Role)
	if !ok {
		return
	}
	out, err := h.svc.Drop(r.Context(), id, body.Reason, body.Notes, role)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, out)
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		JobID string `json:"jobId"`
		Role  string `json:"role"`
	}
	if !decode(w, r, &body) {
		return
	}
	role, ok := callerRole(w, r, body.Role)
	if !ok {
		return
	}
	out, err := h.svc.MoveCandidate(r.Context(), id, body.JobID, role)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, out)
}

// handOff returns the summary as JSON, or as text with ?format=text|markdown.
func (h *Handler) handOff(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := h.svc.HandOff(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	switch r.URL.Query().Get("format") {
	case "text":
		h.text(w, "text/plain", doc.PlainText)
	case "markdown":
		h.text(w, "text/markdown", doc.Markdown)
	default:
		jsonOK(w, doc)
	}
}

func (h *Handler) contract(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := h.svc.Contract(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if r.URL.Query().Get("format") == "markdown" {
		h.text(w, "text/markdown", doc.Markdown)
		return
	}
	jsonOK(w, doc)
}

func (h *Handler) ceoTriggers(w http.ResponseWriter, r *http.Request, id string) {
	hits, err := h.svc.CEOTriggers(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, map[string]any{"triggered": len(hits) > 0, "triggers": hits})
}

func (h *Handler) text(w http.ResponseWriter, contentType string, render func() (string, error)) {
	out, err := render()
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// ─── Settings ────────────────────────────────────────────────────────────────

// handleSettings dispatches:
//
//	GET    /settings/job-families            POST /settings/job-families
//	GET    /settings/job-families/{code}     PUT|DELETE /settings/job-families/{code}
//	GET    /settings/ceo-rules               PUT /settings/ceo-rules/{table}/{index}
//	GET    /settings/universities            POST /settings/universities
//	PUT    /settings/universities/{index}    DELETE /settings/universities/{index}
//	GET    /settings/roles                   POST /settings/roles
//	PUT    /settings/roles/{id}              DELETE /settings/roles/{id}
//	GET    /settings/tas
func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)
	if len(parts) < 2 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	cat := h.svc.Settings()
	args := parts[2:]

	switch parts[1] {
	case "job-families":
		h.families(w, r, cat, args)
	case "ceo-rules":
		h.ceoRules(w, r, cat, args)
	case "universities":
		h.universities(w, r, cat, args)
	case "roles":
		h.roles(w, r, cat, args)
	case "tas":
		if r.Method != http.MethodGet || len(args) != 0 {
			jsonError(w, "not found", http.StatusNotFound)
			return
		}
		jsonOK(w, cat.TAs())
	default:
		jsonError(w, fmt.Sprintf("unknown settings table %q", parts[1]), http.StatusNotFound)
	}
}

func (h *Handler) families(w http.ResponseWriter, r *http.Request, cat *settings.Catalog, args []string) {
	switch {
	case len(args) == 0 && r.Method == http.MethodGet:
		jsonOK(w, cat.Families())
	case len(args) == 0 && r.Method == http.MethodPost:
		var f settings.JobFamily
		if !decode(w, r, &f) {
			return
		}
		if err := cat.AddFamily(f); err != nil {
			h.fail(w, err)
			return
		}
		jsonStatus(w, http.StatusCreated, f)
	case len(args) == 1 && r.Method == http.MethodGet:
		f, ok := cat.Family(args[0])
		if !ok {
			jsonError(w, fmt.Sprintf("job family %q not found", args[0]), http.StatusNotFound)
			return
		}
		jsonOK(w, f)
	case len(args) == 1 && r.Method == http.MethodPut:
		var f settings.JobFamily
		if !decode(w, r, &f) {
			return
		}
		out, err := cat.UpdateFamily(args[0], f)
		if err != nil {
			h.fail(w, err)
			return
		}
		jsonOK(w, out)
	case len(args) == 1 && r.Method == http.MethodDelete:
		if err := h.svc.RemoveFamily(r.Context(), args[0]); err != nil {
			h.fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		jsonError(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) ceoRules(w http.ResponseWriter, r *http.Request, cat *settings.Catalog, args []string) {
	switch {
	case len(args) == 0 && r.Method == http.MethodGet:
		out := make(map[settings.Table][]settings.Rule, len(settings.Tables))
		for _, t := range settings.Tables {
			out[t] = cat.Rules(t)
		}
		jsonOK(w, out)
	case len(args) == 1 && r.Method == http.MethodGet:
		t, err := settings.ParseTable(args[0])
		if err != nil {
			h.fail(w, err)
			return
		}
		jsonOK(w, cat.Rules(t))
	case len(args) == 2 && r.Method == http.MethodPut:
		t, err := settings.ParseTable(args[0])
		if err != nil {
			h.fail(w, err)
			return
		}
		idx, ok := pathIndex(w, args[1])
		if !ok {
			return
		}
		var body struct {
			Field string `json:"field"`
			Value string `json:"value"`
		}
		if !decode(w, r, &body) {
			return
		}
		rule, err := cat.UpdateRule(t, idx, settings.Field(body.Field), body.Value)
		if err != nil {
			h.fail(w, err)
			return
		}
		jsonOK(w, rule)
	default:
		jsonError(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) universities(w http.ResponseWriter, r *http.Request, cat *settings.Catalog, args []string) {
	switch {
	case len(args) == 0 && r.Method == http.MethodGet:
		jsonOK(w, cat.Universities())
	case len(args) == 0 && r.Method == http.MethodPost:
		var u settings.University
		if !decode(w, r, &u) {
			return
		}
		out, err := cat.AddUniversity(u)
		if err != nil {
			h.fail(w, err)
			return
		}
		jsonStatus(w, http.StatusCreated, out)
	case len(args) == 1 && (r.Method == http.MethodPut || r.Method == http.MethodDelete):
		idx, ok := pathIndex(w, args[0])
		if !ok {
			return
		}
		var (
			out []settings.University
			err error
		)
		if r.Method == http.MethodPut {
			var u settings.University
			if !decode(w, r, &u) {
				return
			}
			out, err = cat.EditUniversity(idx, u)
		} else {
			out, err = cat.RemoveUniversity(idx)
		}
		if err != nil {
			h.fail(w, err)
			return
		}
		jsonOK(w, out)
	default:
		jsonError(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) roles(w http.ResponseWriter, r *http.Request, cat *settings.Catalog, args []string) {
	switch {
	case len(args) == 0 && r.Method == http.MethodGet:
		jsonOK(w, cat.Roles())
	case len(args) == 0 && r.Method == http.MethodPost:
		var role settings.JobRole
		if !decode(w, r, &role) {
			return
		}
		out, err := cat.AddRole(role)
		if err != nil {
			h.fail(w, err)
			return
		}
		jsonStatus(w, http.StatusCreated, out)
	case len(args) == 1 && r.Method == http.MethodPut:
		var role settings.JobRole
		if !decode(w, r, &role) {
			return
		}
		out, err := cat.EditRole(args[0], role)
		if err != nil {
			h.fail(w, err)
			return
		}
		jsonOK(w, out)
	case len(args) == 1 && r.Method == http.MethodDelete:
		if err := cat.RemoveRole(args[0]); err != nil {
			h.fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		jsonError(w, "not found", http.StatusNotFound)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// fail maps an error onto a status code: 404 for ErrNotFound, 400 for
// validation failures, 500 for everything else.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	err = translate(err)
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &ve):
		jsonError(w, ve.Msg, http.StatusBadRequest)
	default:
		h.log.Error("request failed", zap.Error(err))
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

// callerRole resolves the role from the body, then the x-user-role header.
func callerRole(w http.ResponseWriter, r *http.Request, fromBody string) (pipeline.Role, bool) {
	raw := fromBody
	if raw == "" {
		raw = r.Header.Get("x-user-role")
	}
	role, ok := pipeline.ParseRole(raw)
	if !ok {
		jsonError(w, fmt.Sprintf("unknown role %q", raw), http.StatusBadRequest)
	}
	return role, ok
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func pathIndex(w http.ResponseWriter, raw string) (int, bool) {
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		jsonError(w, fmt.Sprintf("invalid index %q", raw), http.StatusBadRequest)
		return 0, false
	}
	return i, true
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

func jsonOK(w http.ResponseWriter, v any) {
	jsonStatus(w, http.StatusOK, v)
}

func jsonStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
