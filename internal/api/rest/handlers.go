package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/fortuna/sportslive/internal/events"
	"github.com/fortuna/sportslive/internal/resolver"
)

const (
	// IDPrefix namespaces group ids in the addon protocol.
	IDPrefix = "sportslive:"

	catalogID   = "sportslive_events_direct"
	catalogType = "tv"
)

// Aggregator is the event aggregation boundary the handlers consume.
// Every call triggers a fresh fetch+rebuild pass.
type Aggregator interface {
	GroupEvents(ctx context.Context, status events.StatusFilter, category string) []*events.EventGroup
	FindGroup(ctx context.Context, id string) (*events.EventGroup, bool)
	Categories(ctx context.Context) []string
}

// StreamResolver is the stream resolution boundary.
type StreamResolver interface {
	Resolve(ctx context.Context, group *events.EventGroup, enabledProviders []string) ([]resolver.StreamCandidate, *resolver.Report)
}

// ProviderInfo describes one registered provider for the manifest.
type ProviderInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Meta is the group summary shape of the addon protocol.
type Meta struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Poster      string `json:"poster,omitempty"`
	PosterShape string `json:"posterShape,omitempty"`
	Background  string `json:"background,omitempty"`
	Description string `json:"description,omitempty"`
	ReleaseInfo string `json:"releaseInfo,omitempty"`
}

// Handler contains dependencies for the addon protocol handlers.
type Handler struct {
	aggregator Aggregator
	resolver   StreamResolver
	providers  []ProviderInfo
	version    string
	logger     zerolog.Logger
}

// NewHandler creates the handler set.
func NewHandler(aggregator Aggregator, streamResolver StreamResolver, providers []ProviderInfo, version string, logger zerolog.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		resolver:   streamResolver,
		providers:  providers,
		version:    version,
		logger:     logger,
	}
}

// HealthCheck handles health check requests.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "sportslive",
		"version": h.version,
	})
}

// GetManifest describes the addon. The category options are recomputed
// from a fresh aggregation pass on every request so they track the
// feed instead of a startup snapshot.
func (h *Handler) GetManifest(w http.ResponseWriter, r *http.Request) {
	categories := append([]string{"All"}, h.aggregator.Categories(r.Context())...)

	manifest := map[string]interface{}{
		"id":          "com.stremio.sports.live.addon",
		"version":     h.version,
		"name":        "Sports Live",
		"description": "Live sporting events",
		"logo":        "https://i.imgur.com/eo6sbBO.png",
		"types":       []string{catalogType},
		"resources":   []string{"catalog", "meta", "stream"},
		"idPrefixes":  []string{IDPrefix},
		"catalogs": []map[string]interface{}{
			{
				"id":   catalogID,
				"name": "Sporting Events",
				"type": catalogType,
				"extra": []map[string]interface{}{
					{
						"name":       "status",
						"options":    []string{"All", "Live", "Upcoming", "Finished"},
						"isRequired": false,
						"default":    "All",
					},
					{
						"name":       "category",
						"options":    categories,
						"isRequired": false,
						"default":    "All",
					},
				},
			},
		},
		"behaviorHints": map[string]interface{}{
			"configurable": true,
		},
		"streamProviders": h.providers,
	}

	respondJSON(w, http.StatusOK, manifest)
}

// GetCatalog lists the event groups admitted by the status and
// category selectors.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if vars["type"] != catalogType || vars["id"] != catalogID {
		respondJSON(w, http.StatusOK, map[string]interface{}{"metas": []Meta{}})
		return
	}

	extra := extraValues(r)
	status := events.ParseStatusFilter(extra.Get("status"))
	category := extra.Get("category")
	if category == "" {
		category = "All"
	}

	groups := h.aggregator.GroupEvents(r.Context(), status, category)
	metas := make([]Meta, 0, len(groups))
	for _, g := range groups {
		metas = append(metas, groupMeta(g))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"metas": metas})
}

// GetMeta returns one full group summary. A miss is a routine outcome:
// the feed may have mutated since the id was listed, so the response
// is an explicit null meta rather than an error.
func (h *Handler) GetMeta(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	groupID, ok := stripIDPrefix(vars["id"])
	if !ok || vars["type"] != catalogType {
		respondJSON(w, http.StatusOK, map[string]interface{}{"meta": nil})
		return
	}

	group, found := h.aggregator.FindGroup(r.Context(), groupID)
	if !found {
		respondJSON(w, http.StatusOK, map[string]interface{}{"meta": nil})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"meta": groupMeta(group)})
}

// GetStream resolves one group's links into playable stream
// candidates. Failed provider calls are logged from the resolution
// report and never surface as a request-level error; the successful
// subset is the response.
func (h *Handler) GetStream(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	groupID, ok := stripIDPrefix(vars["id"])
	if !ok || vars["type"] != catalogType {
		respondJSON(w, http.StatusOK, map[string]interface{}{"streams": []resolver.StreamCandidate{}})
		return
	}

	group, found := h.aggregator.FindGroup(r.Context(), groupID)
	if !found {
		respondJSON(w, http.StatusOK, map[string]interface{}{"streams": []resolver.StreamCandidate{}})
		return
	}

	candidates, report := h.resolver.Resolve(r.Context(), group, enabledProviders(r))
	if failures := report.Failures(); len(failures) > 0 {
		h.logger.Warn().
			Str("event", group.Title).
			Int("failed", len(failures)).
			Int("succeeded", len(candidates)).
			Msg("some provider calls produced no candidate")
	}
	if candidates == nil {
		candidates = []resolver.StreamCandidate{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"streams": candidates})
}

// groupMeta converts an EventGroup to its protocol summary.
func groupMeta(g *events.EventGroup) Meta {
	return Meta{
		ID:          IDPrefix + g.ID,
		Type:        catalogType,
		Name:        g.Title,
		Poster:      g.Poster,
		PosterShape: "tv",
		Background:  g.Background,
		Description: g.Description,
		ReleaseInfo: fmt.Sprintf("%s - %s", g.NormalizedTime, g.Status),
	}
}

// stripIDPrefix validates and removes the addon id namespace.
func stripIDPrefix(id string) (string, bool) {
	if !strings.HasPrefix(id, IDPrefix) {
		return "", false
	}
	return strings.TrimPrefix(id, IDPrefix), true
}

// extraValues merges the path-encoded extra segment with the query
// string; the protocol sends selectors either way.
func extraValues(r *http.Request) url.Values {
	values := r.URL.Query()
	if extra := mux.Vars(r)["extra"]; extra != "" {
		if parsed, err := url.ParseQuery(extra); err == nil {
			for k, vs := range parsed {
				for _, v := range vs {
					values.Add(k, v)
				}
			}
		}
	}
	return values
}

// enabledProviders reads the caller's provider selection; empty means
// every registered provider.
func enabledProviders(r *http.Request) []string {
	raw := r.URL.Query().Get("providers")
	if raw == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
