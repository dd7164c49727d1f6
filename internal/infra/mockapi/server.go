// File: internal/infra/mockapi/server.go
package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"car-deal-negotiator/internal/domain/model"
	"car-deal-negotiator/internal/domain/ports/adapter"
)

// Server is the stand-in backend: the full REST surface the client consumes,
// backed by the in-memory store and the deterministic dealer simulator.
// It answers both the canonical /api/v1 paths and the rewritten
// /api/v1/mock paths.
type Server struct {
	store *Store
	log   *zerolog.Logger
}

func NewServer(store *Store, logger *zerolog.Logger) *Server {
	return &Server{store: store, log: logger}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Route("/api/v1", s.mount)
	r.Route("/api/v1/mock", s.mount)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return r
}

func (s *Server) mount(r chi.Router) {
	r.Get("/cars/search", s.handleSearch)

	r.Route("/negotiations", func(r chi.Router) {
		r.Post("/", s.handleCreateNegotiation)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetNegotiation)
			r.Post("/next", s.handleNextRound)
			r.Get("/lender-recommendations", s.handleLenderRecommendations)
			r.Post("/chat", s.handleChat)
			r.Post("/dealer-info", s.handleDealerInfo)
		})
	})

	r.Route("/deals", func(r chi.Router) {
		r.Post("/", s.handleCreateDeal)
		r.Get("/{dealID}", s.handleGetDeal)
	})

	r.Route("/favorites", func(r chi.Router) {
		r.Get("/", s.handleListFavorites)
		r.Post("/", s.handleAddFavorite)
		r.Delete("/{favoriteID}", s.handleRemoveFavorite)
	})

	r.Route("/saved-searches", func(r chi.Router) {
		r.Get("/", s.handleListSavedSearches)
		r.Post("/", s.handleCreateSavedSearch)
		r.Delete("/{searchID}", s.handleDeleteSavedSearch)
	})

	r.Route("/evaluations", func(r chi.Router) {
		r.Post("/", s.handleStartEvaluation)
		r.Route("/{evaluationID}", func(r chi.Router) {
			r.Get("/", s.handleGetEvaluation)
			r.Get("/evaluation", s.handleGetEvaluation)
			r.Post("/answers", s.handleSubmitAnswers)
		})
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).Msg("request")
	})
}

// ---- response helpers (FastAPI-shaped error bodies) ----

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func respondValidation(w http.ResponseWriter, msgs ...string) {
	items := make([]map[string]string, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, map[string]string{"msg": m})
	}
	respondJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": items})
}

// ---- negotiations ----

type roundResponse struct {
	SessionID    string                 `json:"session_id"`
	Status       model.SessionStatus    `json:"status"`
	CurrentRound int                    `json:"current_round"`
	AgentMessage string                 `json:"agent_message"`
	Metadata     *model.MessageMetadata `json:"metadata,omitempty"`
}

func roundResponseFrom(sess *session, msg model.NegotiationMessage) roundResponse {
	return roundResponse{
		SessionID:    sess.SessionID,
		Status:       sess.Status,
		CurrentRound: sess.CurrentRound,
		AgentMessage: msg.Content,
		Metadata:     msg.Metadata,
	}
}

func (s *Server) handleCreateNegotiation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DealID          string   `json:"deal_id"`
		UserTargetPrice *float64 `json:"user_target_price"`
		Strategy        string   `json:"strategy"`
		MaxRounds       int      `json:"max_rounds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	var missing []string
	if req.DealID == "" {
		missing = append(missing, "deal_id is required")
	}
	if req.UserTargetPrice == nil || *req.UserTargetPrice <= 0 {
		missing = append(missing, "user_target_price must be a positive number")
	}
	if len(missing) > 0 {
		respondValidation(w, missing...)
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	maxRounds := req.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 5
	}
	sess := &session{
		NegotiationSession: model.NegotiationSession{
			SessionID:       uuid.NewString(),
			DealID:          req.DealID,
			Status:          model.SessionActive,
			MaxRounds:       maxRounds,
			UserTargetPrice: *req.UserTargetPrice,
		},
		AskingPrice: s.store.dealAskingPrice(req.DealID),
		Strategy:    req.Strategy,
	}
	msg := sess.open()
	s.store.sessions[sess.SessionID] = sess

	s.log.Info().Str("session_id", sess.SessionID).Str("deal_id", req.DealID).
		Float64("asking_price", sess.AskingPrice).Msg("negotiation created")
	respondJSON(w, http.StatusCreated, roundResponseFrom(sess, msg))
}

func (s *Server) handleNextRound(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserAction   string   `json:"user_action"`
		CounterOffer *float64 `json:"counter_offer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	sess, ok := s.store.sessions[chi.URLParam(r, "sessionID")]
	if !ok {
		respondDetail(w, http.StatusNotFound, "negotiation session not found")
		return
	}
	if sess.Status != model.SessionActive {
		respondDetail(w, http.StatusConflict, "negotiation already "+string(sess.Status))
		return
	}

	var msg model.NegotiationMessage
	switch adapter.UserAction(req.UserAction) {
	case adapter.ActionConfirm:
		msg = sess.confirm()
	case adapter.ActionReject:
		msg = sess.reject()
	case adapter.ActionCounter:
		if req.CounterOffer == nil || *req.CounterOffer <= 0 {
			respondValidation(w, "counter_offer must be a positive number")
			return
		}
		msg = sess.counter(*req.CounterOffer)
	default:
		respondValidation(w, "user_action must be one of confirm, reject, counter")
		return
	}

	respondJSON(w, http.StatusOK, roundResponseFrom(sess, msg))
}

func (s *Server) handleGetNegotiation(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	sess, ok := s.store.sessions[chi.URLParam(r, "sessionID")]
	if !ok {
		respondDetail(w, http.StatusNotFound, "negotiation session not found")
		return
	}
	respondJSON(w, http.StatusOK, sess.NegotiationSession)
}

func (s *Server) handleLenderRecommendations(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	sess, ok := s.store.sessions[chi.URLParam(r, "sessionID")]
	if !ok {
		respondDetail(w, http.StatusNotFound, "negotiation session not found")
		return
	}
	term, _ := strconv.Atoi(r.URL.Query().Get("loan_term_months"))
	credit := r.URL.Query().Get("credit_score_range")
	recs := lenderRecommendations(sess.CurrentAsk, term, credit)
	respondJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

func (s *Server) appendFreeformMessage(w http.ResponseWriter, r *http.Request, role model.MessageRole, reply string) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		respondValidation(w, "content is required")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	sess, ok := s.store.sessions[chi.URLParam(r, "sessionID")]
	if !ok {
		respondDetail(w, http.StatusNotFound, "negotiation session not found")
		return
	}
	sess.Messages = append(sess.Messages, model.NegotiationMessage{
		ID:          s.store.newULID(),
		SessionID:   sess.SessionID,
		Role:        role,
		Content:     req.Content,
		RoundNumber: sess.CurrentRound,
		CreatedAt:   time.Now(),
	})
	msg := model.NegotiationMessage{
		ID:          s.store.newULID(),
		SessionID:   sess.SessionID,
		Role:        model.RoleAgent,
		Content:     reply,
		RoundNumber: sess.CurrentRound,
		CreatedAt:   time.Now(),
	}
	sess.Messages = append(sess.Messages, msg)
	respondJSON(w, http.StatusOK, msg)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.appendFreeformMessage(w, r, model.RoleUser, "Noted. Anything else I can check on this vehicle?")
}

func (s *Server) handleDealerInfo(w http.ResponseWriter, r *http.Request) {
	s.appendFreeformMessage(w, r, model.RoleUser, "Thanks, I've recorded that dealer information.")
}

// ---- cars / deals ----

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	yearMin, _ := strconv.Atoi(q.Get("year_min"))
	yearMax, _ := strconv.Atoi(q.Get("year_max"))
	priceMax, _ := strconv.ParseFloat(q.Get("price_max"), 64)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	var hits []model.Vehicle
	for _, v := range s.store.vehicles {
		if m := q.Get("make"); m != "" && !strings.EqualFold(m, v.Make) {
			continue
		}
		if m := q.Get("model"); m != "" && !strings.EqualFold(m, v.Model) {
			continue
		}
		if yearMin > 0 && v.Year < yearMin {
			continue
		}
		if yearMax > 0 && v.Year > yearMax {
			continue
		}
		if priceMax > 0 && v.Price > priceMax {
			continue
		}
		hits = append(hits, v)
	}
	respondJSON(w, http.StatusOK, model.SearchResult{Vehicles: hits, Total: len(hits)})
}

func (s *Server) handleGetDeal(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	d, ok := s.store.deals[chi.URLParam(r, "dealID")]
	if !ok {
		respondDetail(w, http.StatusNotFound, "deal not found")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleCreateDeal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VehicleID   string  `json:"vehicle_id"`
		AskingPrice float64 `json:"asking_price"`
		DealerName  string  `json:"dealer_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.VehicleID == "" || req.AskingPrice <= 0 {
		respondValidation(w, "vehicle_id is required", "asking_price must be a positive number")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	d := model.Deal{
		ID:          s.store.newULID(),
		VehicleID:   req.VehicleID,
		AskingPrice: req.AskingPrice,
		DealerName:  req.DealerName,
		Status:      "open",
		CreatedAt:   time.Now(),
	}
	s.store.deals[d.ID] = d
	respondJSON(w, http.StatusCreated, d)
}

// ---- favorites ----

func (s *Server) handleListFavorites(w http.ResponseWriter, _ *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	out := make([]model.Favorite, 0, len(s.store.favorites))
	for _, f := range s.store.favorites {
		out = append(out, f)
	}
	respondJSON(w, http.StatusOK, map[string]any{"favorites": out})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VehicleID string `json:"vehicle_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VehicleID == "" {
		respondValidation(w, "vehicle_id is required")
		return
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	f := model.Favorite{ID: s.store.newULID(), VehicleID: req.VehicleID, CreatedAt: time.Now()}
	s.store.favorites[f.ID] = f
	respondJSON(w, http.StatusCreated, f)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	id := chi.URLParam(r, "favoriteID")
	if _, ok := s.store.favorites[id]; !ok {
		respondDetail(w, http.StatusNotFound, "favorite not found")
		return
	}
	delete(s.store.favorites, id)
	w.WriteHeader(http.StatusNoContent)
}

// ---- saved searches ----

func (s *Server) handleListSavedSearches(w http.ResponseWriter, _ *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	out := make([]model.SavedSearch, 0, len(s.store.savedSearches))
	for _, ss := range s.store.savedSearches {
		out = append(out, ss)
	}
	respondJSON(w, http.StatusOK, map[string]any{"saved_searches": out})
}

func (s *Server) handleCreateSavedSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string            `json:"name"`
		Query model.SearchQuery `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondValidation(w, "name is required")
		return
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	ss := model.SavedSearch{ID: s.store.newULID(), Name: req.Name, Query: req.Query, CreatedAt: time.Now()}
	s.store.savedSearches[ss.ID] = ss
	respondJSON(w, http.StatusCreated, ss)
}

func (s *Server) handleDeleteSavedSearch(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	id := chi.URLParam(r, "searchID")
	if _, ok := s.store.savedSearches[id]; !ok {
		respondDetail(w, http.StatusNotFound, "saved search not found")
		return
	}
	delete(s.store.savedSearches, id)
	w.WriteHeader(http.StatusNoContent)
}

// ---- evaluation pipeline ----

var evaluationQuestions = []string{
	"Has the vehicle been in any reported accidents?",
	"Is the service history complete?",
	"How many previous owners?",
}

func (s *Server) handleStartEvaluation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DealID string `json:"deal_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DealID == "" {
		respondValidation(w, "deal_id is required")
		return
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	ev := model.DealEvaluation{
		ID:        s.store.newULID(),
		DealID:    req.DealID,
		Status:    "awaiting_answers",
		Questions: evaluationQuestions,
	}
	s.store.evaluations[ev.ID] = ev
	respondJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	ev, ok := s.store.evaluations[chi.URLParam(r, "evaluationID")]
	if !ok {
		respondDetail(w, http.StatusNotFound, "evaluation not found")
		return
	}
	respondJSON(w, http.StatusOK, ev)
}

func (s *Server) handleSubmitAnswers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Answers) == 0 {
		respondValidation(w, "answers is required")
		return
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	ev, ok := s.store.evaluations[chi.URLParam(r, "evaluationID")]
	if !ok {
		respondDetail(w, http.StatusNotFound, "evaluation not found")
		return
	}
	ev.Answers = req.Answers
	ev.Status = "scored"
	// Simple heuristic: full marks minus a penalty per unanswered question.
	answered := 0
	for _, q := range ev.Questions {
		if a, ok := req.Answers[q]; ok && strings.TrimSpace(a) != "" {
			answered++
		}
	}
	ev.Score = 60 + 40*float64(answered)/float64(len(ev.Questions))
	switch {
	case ev.Score >= 85:
		ev.Verdict = "good_deal"
	case ev.Score >= 70:
		ev.Verdict = "fair_deal"
	default:
		ev.Verdict = "needs_review"
	}
	s.store.evaluations[ev.ID] = ev
	respondJSON(w, http.StatusOK, ev)
}
