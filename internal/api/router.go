package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/formpipe/formpipe/internal/middleware"
	"github.com/formpipe/formpipe/internal/services"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

type Router struct {
	store    Store
	validate *validator.Validate
	authz    services.Authorizer

	forms    *services.FormService
	ordering *services.OrderingService
	subs     *services.SubmissionService
	reviews  *services.ReviewService
	auth     *services.AuthService
	stats    *services.StatsService
	exports  *services.ExportService
}

// NewRouter builds a router over an in-memory store with default rate
// limiting. Production wiring goes through NewRouterWithStore.
func NewRouter() *Router {
	return NewRouterWithStore(NewMemoryStore(), services.NewFixedWindowLimiter(5, time.Minute))
}

func NewRouterWithStore(store Store, limiter services.Limiter) *Router {
	return &Router{
		store:    store,
		validate: validator.New(),
		authz:    services.NewRoleAuthorizer(services.ReviewerRoles...),
		forms:    newFormService(store),
		ordering: newOrderingService(store),
		subs:     newSubmissionService(store, limiter),
		reviews:  newReviewService(store),
		auth:     newAuthService(store, middleware.SignToken),
		stats:    newStatsService(store),
		exports:  newExportService(store),
	}
}

func (rt *Router) AuthService() *services.AuthService { return rt.auth }

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister) // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)       // POST
	mux.HandleFunc("/api/forms", rt.handleForms)            // GET, POST
	mux.HandleFunc("/api/forms/active", rt.handleActiveForms)
	mux.HandleFunc("/api/forms/", rt.handleFormScoped) // /{id}, /{id}/schema, /{id}/stats
	mux.HandleFunc("/api/blocks", rt.handleBlocks)     // POST
	mux.HandleFunc("/api/blocks/", rt.handleBlockScoped)
	mux.HandleFunc("/api/questions", rt.handleQuestions) // POST
	mux.HandleFunc("/api/questions/", rt.handleQuestionScoped)
	mux.HandleFunc("/api/responses", rt.handleResponses) // POST submit, GET list
	mux.HandleFunc("/api/responses/", rt.handleResponseScoped)
	mux.HandleFunc("/api/reviewer/status", rt.handleReviewStatus) // POST
	mux.HandleFunc("/api/export", rt.handleExport)                // GET
	mux.HandleFunc("/health", rt.handleHealth)
	mux.HandleFunc("/version", rt.handleVersion)
}

// --- plumbing ---

type errBody struct {
	Code       string `json:"code"`
	Reason     string `json:"reason,omitempty"`
	QuestionID string `json:"question_id,omitempty"`
	Message    string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]errBody{"error": {Code: "internal", Message: "internal error"}})
		return
	}
	status := http.StatusInternalServerError
	switch se.Code {
	case services.ErrorInvalid:
		status = http.StatusBadRequest
	case services.ErrorNotFound:
		status = http.StatusNotFound
	case services.ErrorConflict:
		status = http.StatusConflict
	case services.ErrorForbidden, services.ErrorUnauthorized:
		status = http.StatusForbidden
	case services.ErrorTooManyRequests:
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, map[string]errBody{"error": {
		Code:       string(se.Code),
		Reason:     se.Reason,
		QuestionID: se.QuestionID,
		Message:    se.Message,
	}})
}

func writeInvalid(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]errBody{"error": {Code: "invalid", Message: msg}})
}

func (rt *Router) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeInvalid(w, "invalid json body")
		return false
	}
	if err := rt.validate.Struct(v); err != nil {
		writeInvalid(w, err.Error())
		return false
	}
	return true
}

// actor returns the authenticated reviewer identity, or writes 403.
func (rt *Router) actor(w http.ResponseWriter, r *http.Request) (services.Actor, bool) {
	c, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErr(w, services.NewUnauthorizedError("authentication required"))
		return services.Actor{}, false
	}
	a := services.Actor{ID: c.UID, Email: c.Email, Role: c.Role}
	if !rt.authz.CanReview(a) {
		writeErr(w, services.NewUnauthorizedError("reviewer role required"))
		return services.Actor{}, false
	}
	return a, true
}

// admin returns the authenticated actor when it carries the admin role.
// Schema authoring is admin-only; the wider reviewer roles read and review.
func (rt *Router) admin(w http.ResponseWriter, r *http.Request) (services.Actor, bool) {
	a, ok := rt.actor(w, r)
	if !ok {
		return services.Actor{}, false
	}
	if a.Role != "admin" {
		writeErr(w, services.NewUnauthorizedError("admin role required"))
		return services.Actor{}, false
	}
	return a, true
}

// clientIP extracts the submitting client address for rate limiting.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

// --- auth ---

type registerPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=admin reviewer pastor leader"`
}

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var p registerPayload
	if !rt.decode(w, r, &p) {
		return
	}
	res, err := rt.auth.Register(p.Email, p.Password, p.Role)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": res.Token, "user_id": res.UserID, "role": res.Role})
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var p loginPayload
	if !rt.decode(w, r, &p) {
		return
	}
	res, err := rt.auth.Login(p.Email, p.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID, "role": res.Role})
}

// --- forms ---

type formPayload struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	IsActive    bool       `json:"is_active"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
}

func (rt *Router) handleForms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := rt.actor(w, r); !ok {
			return
		}
		fs, err := rt.forms.ListForms()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"forms": fs})
	case http.MethodPost:
		a, ok := rt.admin(w, r)
		if !ok {
			return
		}
		var p formPayload
		if !rt.decode(w, r, &p) {
			return
		}
		f, err := rt.forms.CreateForm(a.ID, &services.Form{
			Title:       p.Title,
			Description: p.Description,
			IsActive:    p.IsActive,
			StartAt:     p.StartAt,
			EndAt:       p.EndAt,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, f)
	default:
		methodNotAllowed(w)
	}
}

// GET /api/forms/active is public: only currently visible forms.
func (rt *Router) handleActiveForms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	fs, err := rt.forms.ListActiveForms()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"forms": fs})
}

func (rt *Router) handleFormScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/forms/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "schema":
			rt.handleFormSchema(w, r, id)
		case "stats":
			rt.handleFormStats(w, r, id)
		default:
			http.NotFound(w, r)
		}
		return
	}
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		a, authed := middleware.ClaimsFromContext(r.Context())
		publicOnly := !authed || a == nil || !rt.authz.CanReview(services.Actor{ID: a.UID, Email: a.Email, Role: a.Role})
		schema, err := rt.forms.GetFormSchema(id, publicOnly)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, schema)
	case http.MethodPut:
		if _, ok := rt.admin(w, r); !ok {
			return
		}
		var p formPayload
		if !rt.decode(w, r, &p) {
			return
		}
		f, err := rt.forms.UpdateForm(&services.Form{
			ID:          id,
			Title:       p.Title,
			Description: p.Description,
			IsActive:    p.IsActive,
			StartAt:     p.StartAt,
			EndAt:       p.EndAt,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	case http.MethodDelete:
		a, ok := rt.admin(w, r)
		if !ok {
			return
		}
		if err := rt.forms.DeleteForm(id, a.ID); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		methodNotAllowed(w)
	}
}

// GET /api/forms/{id}/schema is the public renderer payload.
func (rt *Router) handleFormSchema(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	schema, err := rt.forms.GetFormSchema(id, true)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (rt *Router) handleFormStats(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	st, err := rt.stats.Summary(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// --- blocks ---

type blockPayload struct {
	FormID string `json:"form_id" validate:"required"`
	Title  string `json:"title" validate:"required"`
	Order  int    `json:"order"`
}

func (rt *Router) handleBlocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if _, ok := rt.admin(w, r); !ok {
		return
	}
	var p blockPayload
	if !rt.decode(w, r, &p) {
		return
	}
	b, err := rt.forms.CreateBlock(&services.Block{FormID: p.FormID, Title: p.Title, Order: p.Order})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

type movePayload struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

func (rt *Router) handleBlockScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/blocks/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if len(parts) == 2 && parts[1] == "move" {
		a, ok := rt.admin(w, r)
		if !ok {
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var p movePayload
		if !rt.decode(w, r, &p) {
			return
		}
		swapped, err := rt.ordering.MoveBlock(id, services.Direction(p.Direction), a.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"moved": swapped != nil, "blocks": swapped})
		return
	}
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}
	if _, ok := rt.admin(w, r); !ok {
		return
	}
	switch r.Method {
	case http.MethodPut:
		var p blockPayload
		if !rt.decode(w, r, &p) {
			return
		}
		b, err := rt.forms.UpdateBlock(&services.Block{ID: id, FormID: p.FormID, Title: p.Title, Order: p.Order})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	case http.MethodDelete:
		if err := rt.forms.DeleteBlock(id); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		methodNotAllowed(w)
	}
}

// --- questions ---

type questionPayload struct {
	BlockID  string   `json:"block_id" validate:"required"`
	Key      string   `json:"key" validate:"required"`
	Label    string   `json:"label" validate:"required"`
	Type     string   `json:"type" validate:"required,oneof=text textarea radio checkbox date time scale points100"`
	Options  []string `json:"options"`
	Required bool     `json:"required"`
	Order    int      `json:"order"`
}

func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if _, ok := rt.admin(w, r); !ok {
		return
	}
	var p questionPayload
	if !rt.decode(w, r, &p) {
		return
	}
	q, err := rt.forms.CreateQuestion(&services.Question{
		BlockID:  p.BlockID,
		Key:      p.Key,
		Label:    p.Label,
		Type:     services.QuestionType(p.Type),
		Options:  p.Options,
		Required: p.Required,
		Order:    p.Order,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (rt *Router) handleQuestionScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/questions/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if len(parts) == 2 && parts[1] == "move" {
		a, ok := rt.admin(w, r)
		if !ok {
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var p movePayload
		if !rt.decode(w, r, &p) {
			return
		}
		swapped, err := rt.ordering.MoveQuestion(id, services.Direction(p.Direction), a.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"moved": swapped != nil, "questions": swapped})
		return
	}
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}
	if _, ok := rt.admin(w, r); !ok {
		return
	}
	switch r.Method {
	case http.MethodPut:
		var p questionPayload
		if !rt.decode(w, r, &p) {
			return
		}
		q, err := rt.forms.UpdateQuestion(&services.Question{
			ID:       id,
			BlockID:  p.BlockID,
			Key:      p.Key,
			Label:    p.Label,
			Type:     services.QuestionType(p.Type),
			Options:  p.Options,
			Required: p.Required,
			Order:    p.Order,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	case http.MethodDelete:
		if err := rt.forms.DeleteQuestion(id); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		methodNotAllowed(w)
	}
}

// --- responses ---

type submitAnswerPayload struct {
	QuestionID string          `json:"question_id" validate:"required"`
	Value      json.RawMessage `json:"value"`
}

type submitPayload struct {
	FormID          string                `json:"form_id" validate:"required"`
	DraftID         string                `json:"draft_id" validate:"required"`
	Anonymous       bool                  `json:"anonymous"`
	RespondentName  string                `json:"respondent_name"`
	RespondentEmail string                `json:"respondent_email" validate:"omitempty,email"`
	Need1on1        bool                  `json:"need_1on1"`
	PreferredDate   string                `json:"preferred_date" validate:"omitempty,datetime=2006-01-02"`
	PreferredTime   string                `json:"preferred_time"`
	Answers         []submitAnswerPayload `json:"answers" validate:"dive"`
}

func (rt *Router) handleResponses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.handleSubmit(w, r)
	case http.MethodGet:
		if _, ok := rt.actor(w, r); !ok {
			return
		}
		formID := r.URL.Query().Get("form_id")
		if formID == "" {
			writeInvalid(w, "form_id required")
			return
		}
		rs, err := rt.store.ListResponsesByForm(formID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"responses": rs})
	default:
		methodNotAllowed(w)
	}
}

// POST /api/responses is the public submission endpoint. A replayed draft
// id returns 200 with the original response id; a fresh insert returns 201.
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var p submitPayload
	if !rt.decode(w, r, &p) {
		return
	}
	answers := make([]services.SubmittedAnswer, 0, len(p.Answers))
	for _, a := range p.Answers {
		answers = append(answers, services.SubmittedAnswer{QuestionID: a.QuestionID, Value: a.Value})
	}
	res, err := rt.subs.Submit(services.SubmissionRequest{
		FormID:          p.FormID,
		DraftID:         p.DraftID,
		Anonymous:       p.Anonymous,
		RespondentName:  p.RespondentName,
		RespondentEmail: p.RespondentEmail,
		Need1on1:        p.Need1on1,
		PreferredDate:   p.PreferredDate,
		PreferredTime:   p.PreferredTime,
		Answers:         answers,
		ClientKey:       clientIP(r),
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{"response_id": res.ResponseID, "replayed": res.Replayed})
}

// GET /api/responses/{id} returns the response with its answers.
func (rt *Router) handleResponseScoped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/responses/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	resp, err := rt.store.GetResponse(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if resp == nil {
		writeErr(w, services.NewNotFoundError("response not found"))
		return
	}
	answers, err := rt.store.ListAnswersByResponse(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"response": resp, "answers": answers})
}

// --- review ---

type statusPayload struct {
	ResponseID string `json:"response_id" validate:"required"`
	Status     string `json:"status" validate:"required"`
}

func (rt *Router) handleReviewStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	c, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErr(w, services.NewUnauthorizedError("authentication required"))
		return
	}
	var p statusPayload
	if !rt.decode(w, r, &p) {
		return
	}
	actor := services.Actor{ID: c.UID, Email: c.Email, Role: c.Role}
	resp, err := rt.reviews.UpdateStatus(actor, p.ResponseID, services.Status(p.Status))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- export ---

// GET /api/export?form_id=...&format=long|wide
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	formID := r.URL.Query().Get("form_id")
	if formID == "" {
		writeInvalid(w, "form_id required")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "long"
	}
	res, err := rt.exports.ExportCSV(services.ExportParams{FormID: formID, Format: format})
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+res.Filename)
	_, _ = w.Write(res.Data)
}

// --- ops ---

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (rt *Router) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"version": Version})
}
