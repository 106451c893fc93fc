package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hrm-gateway/internal/application/feed"
	"github.com/hrm-gateway/internal/domain"
	"github.com/hrm-gateway/internal/transport/http/middleware"
)

// FeedHandler exposes the merged notification surface.
type FeedHandler struct {
	svc *feed.Service
}

func NewFeedHandler(svc *feed.Service) *FeedHandler { return &FeedHandler{svc: svc} }

// viewerFromRequest builds the feed viewer identity from the verified
// JWT claims and the raw bearer token.
func viewerFromRequest(r *http.Request) (feed.Viewer, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return feed.Viewer{}, false
	}
	token, _ := middleware.TokenFromContext(r.Context())
	return feed.Viewer{
		SessionID: claims.SessionID,
		UserID:    claims.UserID,
		Role:      claims.Role,
		Token:     token,
	}, true
}

// Open marks the notification surface open, which starts stream fetching.
func (h *FeedHandler) Open(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.svc.Open(v)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "surface open"})
}

// Close marks the surface closed and stops polling.
func (h *FeedHandler) Close(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.svc.Close(v)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "surface closed"})
}

// Get returns the merged, sorted feed plus the full-list unread count.
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	view, err := h.svc.Feed(r.Context(), v, limit)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type clickRequest struct {
	Source string `json:"source"`
	ID     int64  `json:"id"`
}

// Click marks a record read (locally or via the upstream mutation) and
// returns its navigation route. An empty route means no navigation.
func (h *FeedHandler) Click(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	stream := domain.Stream(req.Source)
	if stream != domain.StreamLeave && stream != domain.StreamGeneral {
		writeError(w, http.StatusBadRequest, "unknown source stream")
		return
	}
	route, err := h.svc.Click(r.Context(), v, stream, req.ID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClickEnvelope{Route: route})
}
