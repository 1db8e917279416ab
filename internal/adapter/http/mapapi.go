package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/solar-map-service/internal/domain"
	"github.com/couchcryptid/solar-map-service/internal/session"
)

// Map is the interactive map session driven by the API.
type Map interface {
	Hover(fips string) (session.Update, error)
	HoverExit(fips string) session.Update
	Select(ctx context.Context, fips string) (session.Update, error)
	Close() session.Update
	KeyDown(key string) session.Update
	SetContrast(mode domain.ContrastMode) session.Update
	Styles() []domain.FeatureStyle
	Features() []domain.CountyFeature
	LegendFor(mode domain.ContrastMode) []domain.LegendEntry
	Layers(zoom int) domain.Layers
	Summary() session.Summary
	State() session.View
}

// Announcements is the polled view of the live region.
type Announcements interface {
	Since(seq uint64) []session.Announcement
}

const maxBodyBytes = 1 << 16

var validate = validator.New()

type fipsRequest struct {
	FIPS string `json:"fips" validate:"required,max=16"`
}

type keyRequest struct {
	Key string `json:"key" validate:"required,max=32"`
}

type contrastRequest struct {
	Mode string `json:"mode" validate:"required,oneof=normal high-contrast"`
}

type countyResponse struct {
	domain.CountyFeature
	Style domain.RenderStyle `json:"style"`
}

type mapAPI struct {
	m      Map
	live   Announcements
	logger *slog.Logger
}

func (a *mapAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/legend", a.handleLegend)
	mux.HandleFunc("GET /api/layers", a.handleLayers)
	mux.HandleFunc("GET /api/counties", a.handleCounties)
	mux.HandleFunc("GET /api/summary", a.handleSummary)
	mux.HandleFunc("GET /api/interaction", a.handleState)
	mux.HandleFunc("GET /api/announcements", a.handleAnnouncements)

	mux.HandleFunc("POST /api/interaction/hover", a.handleHover)
	mux.HandleFunc("POST /api/interaction/hover-exit", a.handleHoverExit)
	mux.HandleFunc("POST /api/interaction/select", a.handleSelect)
	mux.HandleFunc("POST /api/interaction/close", a.handleClose)
	mux.HandleFunc("POST /api/interaction/key", a.handleKey)
	mux.HandleFunc("PUT /api/contrast", a.handleContrast)
}

func (a *mapAPI) handleLegend(w http.ResponseWriter, r *http.Request) {
	var mode domain.ContrastMode
	if v := r.URL.Query().Get("mode"); v != "" {
		parsed, err := domain.ParseContrastMode(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = parsed
	}
	sharedobs.WriteJSON(w, http.StatusOK, a.m.LegendFor(mode))
}

func (a *mapAPI) handleLayers(w http.ResponseWriter, r *http.Request) {
	zoom := 0
	if v := r.URL.Query().Get("zoom"); v != "" {
		z, err := strconv.Atoi(v)
		if err != nil || z < 0 || z > 22 {
			writeError(w, http.StatusBadRequest, "zoom must be an integer between 0 and 22")
			return
		}
		zoom = z
	}
	sharedobs.WriteJSON(w, http.StatusOK, a.m.Layers(zoom))
}

func (a *mapAPI) handleCounties(w http.ResponseWriter, _ *http.Request) {
	features := a.m.Features()
	styles := make(map[string]domain.RenderStyle, len(features))
	for _, fs := range a.m.Styles() {
		styles[fs.FIPS] = fs.Style
	}
	out := make([]countyResponse, len(features))
	for i, f := range features {
		out[i] = countyResponse{CountyFeature: f, Style: styles[f.FIPS]}
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (a *mapAPI) handleSummary(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, a.m.Summary())
}

func (a *mapAPI) handleState(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, a.m.State())
}

func (a *mapAPI) handleAnnouncements(w http.ResponseWriter, r *http.Request) {
	if a.live == nil {
		sharedobs.WriteJSON(w, http.StatusOK, []session.Announcement{})
		return
	}
	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}
	sharedobs.WriteJSON(w, http.StatusOK, a.live.Since(since))
}

func (a *mapAPI) handleHover(w http.ResponseWriter, r *http.Request) {
	var req fipsRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := a.m.Hover(req.FIPS)
	a.respond(w, u, err)
}

func (a *mapAPI) handleHoverExit(w http.ResponseWriter, r *http.Request) {
	var req fipsRequest
	if !decode(w, r, &req) {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, a.m.HoverExit(req.FIPS))
}

func (a *mapAPI) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req fipsRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := a.m.Select(r.Context(), req.FIPS)
	a.respond(w, u, err)
}

func (a *mapAPI) handleClose(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, a.m.Close())
}

func (a *mapAPI) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if !decode(w, r, &req) {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, a.m.KeyDown(req.Key))
}

func (a *mapAPI) handleContrast(w http.ResponseWriter, r *http.Request) {
	var req contrastRequest
	if !decode(w, r, &req) {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, a.m.SetContrast(domain.ContrastMode(req.Mode)))
}

func (a *mapAPI) respond(w http.ResponseWriter, u session.Update, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownFeature):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		a.logger.Error("interaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		sharedobs.WriteJSON(w, http.StatusOK, u)
	}
}

// decode reads and validates a JSON body, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
