// Package api provides the HTTP API over the simulation.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token and carry the player's actions.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/engine"
	"github.com/talgya/assembly/internal/lifecycle"
	"github.com/talgya/assembly/internal/parliament"
	"github.com/talgya/assembly/internal/persistence"
	"github.com/talgya/assembly/internal/social"
)

// projectionCacheSize is how many projected-control maps are kept, keyed by
// simulation generation.
const projectionCacheSize = 64

// Server serves the simulation over HTTP.
type Server struct {
	Eng      *engine.Engine
	DB       *persistence.DB     // Optional; enables snapshots
	Gatherer prometheus.Gatherer // Optional; enables /metrics
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	projections *lru.Cache[uint64, map[string]social.PartyID]
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	if s.projections == nil {
		s.projections, _ = lru.New[uint64, map[string]social.PartyID](projectionCacheSize)
	}
	projectionLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/parties", s.handleParties)
	mux.HandleFunc("GET /api/v1/party/{id}", s.handlePartyDetail)
	mux.HandleFunc("GET /api/v1/alliances", s.handleAlliances)
	mux.HandleFunc("GET /api/v1/characters", s.handleCharacters)
	mux.HandleFunc("GET /api/v1/character/{id}", s.handleCharacterDetail)
	mux.HandleFunc("GET /api/v1/results", s.handleResults)
	mux.HandleFunc("GET /api/v1/history", s.handleHistory)
	mux.HandleFunc("GET /api/v1/government", s.handleGovernment)
	mux.HandleFunc("GET /api/v1/parliament", s.handleParliament)
	mux.HandleFunc("GET /api/v1/event", s.handleEvent)
	mux.HandleFunc("GET /api/v1/log", s.handleLog)
	mux.HandleFunc("GET /api/v1/projection", RateLimitMiddleware(projectionLimiter, s.handleProjection))
	if s.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	// Admin endpoints.
	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("POST /api/v1/pause", s.adminOnly(s.handlePause))
	mux.HandleFunc("POST /api/v1/resume", s.adminOnly(s.handleResume))
	mux.HandleFunc("POST /api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("POST /api/v1/event/acknowledge", s.adminOnly(s.handleAcknowledge))
	mux.HandleFunc("POST /api/v1/speaker", s.adminOnly(s.handleSpeaker))
	mux.HandleFunc("POST /api/v1/confidence", s.adminOnly(s.handleConfidence))
	mux.HandleFunc("POST /api/v1/bill", s.adminOnly(s.handleProposeBill))
	mux.HandleFunc("POST /api/v1/bill/vote", s.adminOnly(s.handleBillVote))
	mux.HandleFunc("POST /api/v1/crackdown", s.adminOnly(s.handleCrackdown))
	mux.HandleFunc("POST /api/v1/action", s.adminOnly(s.handleAction))
	mux.HandleFunc("POST /api/v1/move", s.adminOnly(s.handleMove))
	mux.HandleFunc("POST /api/v1/merger", s.adminOnly(s.handleMerger))
	mux.HandleFunc("POST /api/v1/secede", s.adminOnly(s.handleSecede))
	mux.HandleFunc("POST /api/v1/alliance", s.adminOnly(s.handleAlliance))

	return corsMiddleware(mux)
}

// Run serves the API until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "")

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no ASSEMBLY_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// view runs fn under the engine lock.
func (s *Server) view(fn func(sim *engine.Simulation)) {
	s.Eng.Do(func(sim *engine.Simulation) error {
		fn(sim)
		return nil
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var status map[string]any
	s.view(func(sim *engine.Simulation) {
		status = map[string]any{
			"name":          "Assembly",
			"date":          sim.Date.Format(time.DateOnly),
			"next_election": sim.NextElection.Format(time.DateOnly),
			"days_to_poll":  int(sim.NextElection.Sub(sim.Date).Hours() / 24),
			"phase":         sim.Phase,
			"speed":         s.Eng.Speed,
			"seats":         sim.Geography.SeatCount(),
			"living":        sim.Living(),
			"mps":           len(sim.MPs()),
			"parties":       len(sim.Parties),
			"elections":     len(sim.History),
			"government":    sim.Government != nil,
			"speaker":       sim.Speaker,
			"player_id":     sim.PlayerID,
			"generation":    sim.Generation,
		}
	})
	writeJSON(w, status)
}

type partySummary struct {
	ID           social.PartyID         `json:"id"`
	Name         string                 `json:"name"`
	Color        string                 `json:"color"`
	Unity        float64                `json:"unity"`
	Ideology     agents.Ideology        `json:"ideology"`
	LeaderID     agents.CharacterID     `json:"leader_id"`
	Affiliations []agents.AffiliationID `json:"affiliations"`
	Members      int                    `json:"members"`
	Seats        int                    `json:"seats"`
	Contesting   int                    `json:"contesting"`
	InGovernment bool                   `json:"in_government"`
}

func (s *Server) handleParties(w http.ResponseWriter, r *http.Request) {
	var result []partySummary
	s.view(func(sim *engine.Simulation) {
		members := sim.Registry().Members(sim.Characters, true)
		seats := sim.Results.SeatTotals()
		for _, p := range sim.Parties {
			result = append(result, partySummary{
				ID:           p.ID,
				Name:         p.Name,
				Color:        p.Color,
				Unity:        p.Unity,
				Ideology:     p.Ideology,
				LeaderID:     p.LeaderID,
				Affiliations: p.AffiliationIDs,
				Members:      len(members[p.ID]),
				Seats:        seats[p.ID],
				Contesting:   len(p.ContestedSeats),
				InGovernment: sim.Government.InCoalition(p.ID),
			})
		}
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].Seats != result[j].Seats {
			return result[i].Seats > result[j].Seats
		}
		return result[i].ID < result[j].ID
	})
	writeJSON(w, result)
}

func (s *Server) handlePartyDetail(w http.ResponseWriter, r *http.Request) {
	id := social.PartyID(r.PathValue("id"))
	var (
		party *social.Party
		roles map[agents.CharacterID]string
	)
	s.view(func(sim *engine.Simulation) {
		p := sim.Party(id)
		if p == nil {
			return
		}
		party = p.Clone()
		roles = make(map[agents.CharacterID]string)
		for _, c := range sim.Registry().Members(sim.Characters, true)[p.ID] {
			if role := social.RoleOf(c.ID, p); role != social.RoleMember {
				roles[c.ID] = role.String()
			}
		}
	})
	if party == nil {
		http.Error(w, "party not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"party": party, "officers": roles})
}

func (s *Server) handleAlliances(w http.ResponseWriter, r *http.Request) {
	var result []*social.Alliance
	s.view(func(sim *engine.Simulation) {
		result = social.CloneAlliances(sim.Alliances)
	})
	writeJSON(w, result)
}

func (s *Server) handleCharacters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	party := social.PartyID(q.Get("party"))
	seat := q.Get("seat")
	includeDead := q.Get("dead") == "true"
	mpsOnly := q.Get("mp") == "true"

	type characterSummary struct {
		ID          agents.CharacterID   `json:"id"`
		Name        string               `json:"name"`
		Age         int                  `json:"age"`
		Seat        string               `json:"seat"`
		Region      string               `json:"region"`
		Affiliation agents.AffiliationID `json:"affiliation"`
		Party       social.PartyID       `json:"party,omitempty"`
		Role        string               `json:"role"`
		Influence   float64              `json:"influence"`
		Recognition float64              `json:"recognition"`
		MP          bool                 `json:"mp"`
		Alive       bool                 `json:"alive"`
		Player      bool                 `json:"player,omitempty"`
	}

	var result []characterSummary
	s.view(func(sim *engine.Simulation) {
		reg := sim.Registry()
		for _, c := range sim.Characters {
			if (!c.Alive && !includeDead) || (mpsOnly && !c.IsMP) || (seat != "" && c.SeatCode != seat) {
				continue
			}
			p := reg.PartyOfCharacter(c)
			var pid social.PartyID
			if p != nil {
				pid = p.ID
			}
			if party != "" && pid != party {
				continue
			}
			result = append(result, characterSummary{
				ID:          c.ID,
				Name:        c.Name,
				Age:         c.Age(sim.Date),
				Seat:        c.SeatCode,
				Region:      c.Region,
				Affiliation: c.AffiliationID,
				Party:       pid,
				Role:        social.RoleOf(c.ID, p).String(),
				Influence:   c.Influence,
				Recognition: c.Recognition,
				MP:          c.IsMP,
				Alive:       c.Alive,
				Player:      c.IsPlayer,
			})
		}
	})
	writeJSON(w, result)
}

func (s *Server) handleCharacterDetail(w http.ResponseWriter, r *http.Request) {
	id := agents.CharacterID(r.PathValue("id"))
	var c *agents.Character
	s.view(func(sim *engine.Simulation) {
		if found := sim.Character(id); found != nil {
			c = found.Clone()
		}
	})
	if c == nil {
		http.Error(w, "character not found", http.StatusNotFound)
		return
	}
	writeJSON(w, c)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	var result map[string]any
	s.view(func(sim *engine.Simulation) {
		result = map[string]any{
			"results": sim.Results.Clone(),
			"totals":  sim.Results.SeatTotals(),
		}
		if latest := sim.History.Latest(); latest != nil {
			result["date"] = latest.Date.Format(time.DateOnly)
			result["detailed"] = latest.Detailed
			result["seat_winners"] = latest.SeatWinners
			result["popular_vote"] = latest.PopularVote()
			result["swings"] = sim.History.SeatSwings()
		}
	})
	writeJSON(w, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	type electionSummary struct {
		Date            string                 `json:"date"`
		Seats           map[social.PartyID]int `json:"seats"`
		PopularVote     map[social.PartyID]int `json:"popular_vote"`
		TotalVotes      int                    `json:"total_votes"`
		TotalElectorate int                    `json:"total_electorate"`
	}
	var result []electionSummary
	s.view(func(sim *engine.Simulation) {
		for _, e := range sim.History {
			result = append(result, electionSummary{
				Date:            e.Date.Format(time.DateOnly),
				Seats:           e.Results.SeatTotals(),
				PopularVote:     e.PopularVote(),
				TotalVotes:      e.TotalVotes,
				TotalElectorate: e.TotalElectorate,
			})
		}
	})
	writeJSON(w, result)
}

func (s *Server) handleGovernment(w http.ResponseWriter, r *http.Request) {
	var (
		gov   *social.Government
		names map[agents.CharacterID]string
	)
	s.view(func(sim *engine.Simulation) {
		if sim.Government == nil {
			return
		}
		gov = sim.Government.Clone()
		names = make(map[agents.CharacterID]string)
		for _, id := range append([]agents.CharacterID{gov.ChiefExecutiveID}, gov.Cabinet...) {
			if c := sim.Character(id); c != nil {
				names[id] = c.Name
			}
		}
	})
	if gov == nil {
		writeJSON(w, map[string]any{"government": nil})
		return
	}
	writeJSON(w, map[string]any{"government": gov, "names": names})
}

func (s *Server) handleParliament(w http.ResponseWriter, r *http.Request) {
	var result map[string]any
	s.view(func(sim *engine.Simulation) {
		result = map[string]any{
			"speaker":            sim.Speaker,
			"speaker_candidates": sim.SpeakerCandidates,
			"speaker_result":     sim.SpeakerResult,
			"bill":               sim.Bill,
			"bill_result":        sim.BillResult,
			"bills":              parliament.Bills,
		}
	})
	writeJSON(w, result)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var result map[string]any
	s.view(func(sim *engine.Simulation) {
		result = map[string]any{"phase": sim.Phase, "event": sim.PendingEvent}
	})
	writeJSON(w, result)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, 500)
	}
	typ := engine.LogType(r.URL.Query().Get("type"))

	var result []engine.LogEntry
	s.view(func(sim *engine.Simulation) {
		for _, e := range sim.RecentLog(0) {
			if typ != "" && e.Type != typ {
				continue
			}
			result = append(result, e)
			if len(result) == limit {
				break
			}
		}
	})
	writeJSON(w, result)
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	var (
		control map[string]social.PartyID
		err     error
	)
	s.view(func(sim *engine.Simulation) {
		if cached, ok := s.projections.Get(sim.Generation); ok {
			control = cached
			return
		}
		control, err = sim.ProjectedControl()
		if err == nil {
			s.projections.Add(sim.Generation, control)
		}
	})
	if err != nil {
		slog.Error("projection failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	totals := make(map[social.PartyID]int)
	for _, pid := range control {
		totals[pid]++
	}
	writeJSON(w, map[string]any{"seats": control, "totals": totals})
}

// ── Admin actions ─────────────────────────────────────────────────────

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Speed < 0 || req.Speed > 1000 {
		http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
		return
	}
	s.Eng.SetSpeed(req.Speed)
	slog.Info("speed changed", "speed", req.Speed)
	writeJSON(w, map[string]float64{"speed": req.Speed})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.act(w, func(sim *engine.Simulation) (any, error) {
		sim.Pause()
		return map[string]any{"phase": sim.Phase}, nil
	})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.act(w, func(sim *engine.Simulation) (any, error) {
		err := sim.Resume()
		return map[string]any{"phase": sim.Phase}, err
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		if err := s.DB.SaveWorldState(sim); err != nil {
			slog.Error("snapshot save failed", "error", err)
			return nil, err
		}
		return map[string]any{"date": sim.Date.Format(time.DateOnly), "message": "snapshot saved"}, nil
	})
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	s.act(w, func(sim *engine.Simulation) (any, error) {
		err := sim.AcknowledgeEvent()
		return map[string]any{"phase": sim.Phase}, err
	})
}

type voteRequest struct {
	Vote      parliament.Direction `json:"vote"`
	Candidate agents.CharacterID   `json:"candidate"`
}

func validVote(w http.ResponseWriter, d parliament.Direction) bool {
	if !d.Valid() {
		http.Error(w, "vote must be Aye, Nay or Abstain", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleSpeaker(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !decode(w, r, &req) {
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		return sim.ElectSpeaker(req.Candidate)
	})
}

func (s *Server) handleConfidence(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !decode(w, r, &req) || !validVote(w, req.Vote) {
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		return sim.CallConfidenceVote(req.Vote)
	})
}

func (s *Server) handleProposeBill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		return sim.ProposeBill(req.ID)
	})
}

func (s *Server) handleBillVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !decode(w, r, &req) {
		return
	}
	if !validVote(w, req.Vote) {
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		return sim.VoteOnBill(req.Vote)
	})
}

func (s *Server) handleCrackdown(w http.ResponseWriter, r *http.Request) {
	s.act(w, func(sim *engine.Simulation) (any, error) {
		res, err := sim.SecurityCrackdown()
		if err != nil {
			return nil, err
		}
		return map[string]any{"detained": res.Detained, "event": res.Event}, nil
	})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action engine.Action  `json:"action"`
		Target social.PartyID `json:"target"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		if err := sim.PerformAction(req.Action, req.Target); err != nil {
			return nil, err
		}
		return sim.Player(), nil
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seat string `json:"seat"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		if err := sim.MoveSeat(req.Seat); err != nil {
			return nil, err
		}
		return sim.Player(), nil
	})
}

func (s *Server) handleMerger(w http.ResponseWriter, r *http.Request) {
	var req engine.MergerProposal
	if !decode(w, r, &req) {
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		return sim.ProposeMerger(req)
	})
}

func (s *Server) handleSecede(w http.ResponseWriter, r *http.Request) {
	var req engine.SecessionRequest
	if !decode(w, r, &req) {
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		out, err := sim.Secede(req)
		if err != nil {
			return nil, err
		}
		return map[string]any{"party_id": out.PartyID, "seats": out.Touched}, nil
	})
}

func (s *Server) handleAlliance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string              `json:"name"`
		Invited []social.PartyID    `json:"invited"`
		Kind    social.AllianceKind `json:"kind"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		a, acc, err := sim.FormAlliance(req.Name, req.Invited, req.Kind)
		return map[string]any{"alliance": a, "acceptance": acc}, err
	})
}

// act runs a player action under the engine lock and writes its result.
func (s *Server) act(w http.ResponseWriter, fn func(sim *engine.Simulation) (any, error)) {
	var (
		out any
		err error
	)
	s.Eng.Do(func(sim *engine.Simulation) error {
		out, err = fn(sim)
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	writeJSON(w, out)
}

// statusOf maps engine errors to HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotRunning), errors.Is(err, engine.ErrNotAwaiting),
		errors.Is(err, engine.ErrNoGovernment), errors.Is(err, engine.ErrNotInGovernment),
		errors.Is(err, engine.ErrNoBill), errors.Is(err, engine.ErrNoPlayer):
		return http.StatusConflict
	case errors.Is(err, engine.ErrUnknownParty), errors.Is(err, engine.ErrUnknownBill),
		errors.Is(err, lifecycle.ErrUnknownAffiliation):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrUnknownAction), errors.Is(err, engine.ErrOwnParty),
		errors.Is(err, lifecycle.ErrLastAffiliation),
		errors.Is(err, lifecycle.ErrNothingToCombine), errors.Is(err, lifecycle.ErrBadSecession):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
