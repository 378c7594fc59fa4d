package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cuepoint/internal/bookings"
	"cuepoint/internal/cms"
	"cuepoint/internal/content"
	"cuepoint/internal/engine"
	"cuepoint/internal/logging"
)

// handleContent serves the catalog ranked against the visitor context.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	state := s.store(r).State()
	ranked := content.Rank(s.catalog, state)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"modules": ranked,
		"layout":  state.Organs.Layout,
	})
}

// eventRequest is the wire form of a context event. Type selects which of
// the remaining fields are read.
type eventRequest struct {
	Type string `json:"type"`

	Location     *engine.Geo `json:"location,omitempty"`
	NearbyStores []string    `json:"nearbyStores,omitempty"`

	Interests []string `json:"interests,omitempty"`

	Page       string `json:"page,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`

	Engagement string `json:"engagement,omitempty"`

	Resonance float64 `json:"resonance,omitempty"`

	Journey string `json:"journey,omitempty"`
}

// errUnknownEvent marks an event tag outside the closed action set. Such
// events are dropped, never raised to the caller.
var errUnknownEvent = errors.New("unknown event type")

func (e eventRequest) toAction() (engine.Action, error) {
	switch engine.ActionType(e.Type) {
	case engine.ActionUpdateLocation:
		if e.Location == nil {
			return engine.Action{}, fmt.Errorf("update_location requires a location")
		}
		return engine.UpdateLocation(*e.Location, e.NearbyStores), nil
	case engine.ActionUpdateInterests:
		return engine.UpdateInterests(e.Interests...), nil
	case engine.ActionAddPageVisit:
		if e.Page == "" {
			return engine.Action{}, fmt.Errorf("add_page_visit requires a page")
		}
		return engine.AddPageVisit(engine.PageVisit{
			Page:      e.Page,
			Timestamp: time.Now(),
			Duration:  time.Duration(e.DurationMs) * time.Millisecond,
		}), nil
	case engine.ActionUpdateEngagement:
		return engine.UpdateEngagement(engine.EngagementLevel(e.Engagement)), nil
	case engine.ActionUpdateResonance:
		return engine.UpdateResonance(e.Resonance), nil
	case engine.ActionUpdateJourney:
		return engine.UpdateJourney(engine.JourneyStage(e.Journey)), nil
	default:
		return engine.Action{}, errUnknownEvent
	}
}

// handleEvents dispatches a context event and returns the resulting state.
// Unknown event tags answer 204 and leave the context untouched; only
// malformed bodies and incomplete known events are client errors.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event body: %v", err)
		return
	}
	action, err := req.toAction()
	if errors.Is(err, errUnknownEvent) {
		logging.EngineDebug("dropping event with unknown type %q", req.Type)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	state := s.store(r).Dispatch(action)
	writeJSON(w, http.StatusOK, state)
}

// handleRecommendations recomputes and returns the recommendation list.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	state := s.store(r).RefreshRecommendations()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": state.Organs.Recommendations,
		"journey":         state.Fields.Journey,
	})
}

// handleGetState returns the full context snapshot for the session.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store(r).State())
}

type chatRequest struct {
	Message string `json:"message"`
}

// handleChat answers a visitor message and folds any matched interests back
// into the context engine.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid chat body: %v", err)
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp := s.responder.Respond(req.Message)

	store := s.store(r)
	if len(resp.Interests) > 0 {
		store.Dispatch(engine.UpdateInterests(resp.Interests...))
	}
	state := store.RefreshRecommendations()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reply":       resp.Reply,
		"matched":     resp.Matched,
		"suggestions": state.Organs.Recommendations,
	})
}

// handleSubmitBooking accepts a booking and either delivers it to the CRM or
// queues it for the retry loop. Queued submissions answer 202.
func (s *Server) handleSubmitBooking(w http.ResponseWriter, r *http.Request) {
	var b bookings.Booking
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking body: %v", err)
		return
	}
	result, err := s.queue.Submit(r.Context(), b)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	status := http.StatusCreated
	if result.Queued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	all, err := s.queue.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookings: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": all})
}

func (s *Server) handleSyncBookings(w http.ResponseWriter, r *http.Request) {
	stats, err := s.queue.Sync(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sync failed: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleCMSList serves entries, optionally filtered by ?category=. A ?key=
// query returns the single matching entry instead.
func (s *Server) handleCMSList(w http.ResponseWriter, r *http.Request) {
	if key := r.URL.Query().Get("key"); key != "" {
		s.writeCMSEntry(w, key)
		return
	}
	entries, err := s.cms.All(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list content: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) handleCMSGet(w http.ResponseWriter, r *http.Request) {
	s.writeCMSEntry(w, r.PathValue("key"))
}

func (s *Server) writeCMSEntry(w http.ResponseWriter, key string) {
	entry, found, err := s.cms.Get(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load %s: %v", key, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no entry for key %q", key)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleCMSSet upserts one entry or, when the body is a JSON array, a batch
// in a single transaction.
func (s *Server) handleCMSSet(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body: %v", err)
		return
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []cms.Entry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			writeError(w, http.StatusBadRequest, "invalid entry batch: %v", err)
			return
		}
		if err := s.cms.SetBatch(entries); err != nil {
			writeError(w, http.StatusBadRequest, "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"updated": len(entries)})
		return
	}

	var e cms.Entry
	if err := json.Unmarshal(trimmed, &e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry body: %v", err)
		return
	}
	if err := s.cms.Set(e); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	entry, _, err := s.cms.Get(e.Key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload %s: %v", e.Key, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleCMSReset(w http.ResponseWriter, r *http.Request) {
	if err := s.cms.Reset(); err != nil {
		writeError(w, http.StatusInternalServerError, "reset failed: %v", err)
		return
	}
	logging.CMS("content reset to seeds")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleCMSExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.cms.Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed: %v", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="cuepoint-content.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleCMSImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read import body: %v", err)
		return
	}
	if err := s.cms.Import(data); err != nil {
		writeError(w, http.StatusBadRequest, "import failed: %v", err)
		return
	}
	logging.CMS("imported content bundle (%d bytes)", len(data))
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Stats())
}
