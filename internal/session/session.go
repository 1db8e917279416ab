// Package session owns the interactive state of one map: the current county
// and point sets, the hover/selection state, the contrast mode, and the
// viewport. Every event is serialized so the state commit always precedes the
// restyle and announcement it produces.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/solar-map-service/internal/domain"
	"github.com/couchcryptid/solar-map-service/internal/observability"
)

// Feedback is an optional audio or haptic cue played on selection.
type Feedback interface {
	Play(ctx context.Context, cue string) error
}

// Update is the outcome of one event: the features to repaint, the text for
// the live region, and the detail payload when a county is selected.
type Update struct {
	Styles       []domain.FeatureStyle `json:"styles"`
	Announcement string                `json:"announcement,omitempty"`
	Details      *domain.CountyDetails `json:"details,omitempty"`
	Key          *domain.KeyAction     `json:"key,omitempty"`
}

// View is a read-only copy of the session state.
type View struct {
	HoveredKey  string                `json:"hovered_key,omitempty"`
	SelectedKey string                `json:"selected_key,omitempty"`
	FocusedKey  string                `json:"focused_key,omitempty"`
	Mode        domain.ContrastMode   `json:"mode"`
	Details     *domain.CountyDetails `json:"details,omitempty"`
	Viewport    Viewport              `json:"viewport"`
	SnapshotID  string                `json:"snapshot_id,omitempty"`
	Features    int                   `json:"features"`
	Points      int                   `json:"points"`
}

// Viewport tracks the accumulated pan offset of the map in pixels.
type Viewport struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PanBy shifts the viewport.
func (v *Viewport) PanBy(dx, dy int) {
	v.X += dx
	v.Y += dy
}

// Session is the single owner of a map's InteractionState.
type Session struct {
	mu sync.Mutex

	styler   *domain.FeatureStyler
	mode     domain.ContrastMode
	state    domain.InteractionState
	features domain.FeatureSet
	order    []string
	snapshot domain.Snapshot
	details  *domain.CountyDetails
	focused  string
	viewport Viewport
	keyboard *domain.KeyboardController
	pending  *Update

	live     LiveRegion
	feedback Feedback
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a session with an empty feature set. A nil live region discards
// announcements and a nil logger uses slog.Default.
func New(styler *domain.FeatureStyler, mode domain.ContrastMode, live LiveRegion, logger *slog.Logger, metrics *observability.Metrics) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if styler == nil {
		styler = domain.NewFeatureStyler(nil, nil)
	}
	if mode == "" {
		mode = domain.ContrastNormal
	}
	s := &Session{
		styler:   styler,
		mode:     mode,
		features: domain.FeatureSet{},
		live:     live,
		logger:   logger,
		metrics:  metrics,
	}
	s.keyboard = domain.NewKeyboardController(&s.viewport, lockedSelector{s})
	return s
}

// SetFeedback installs the selection cue player. Pass nil to disable.
func (s *Session) SetFeedback(f Feedback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = f
}

// lockedSelector lets the keyboard controller select while the session lock
// is already held.
type lockedSelector struct{ s *Session }

func (l lockedSelector) SelectKey(key string) error {
	u, err := l.s.selectLocked(context.Background(), key)
	if err != nil {
		return err
	}
	l.s.pending = &u
	return nil
}

// Hover marks fips as hovered and focused, repaints the previous and new hover
// targets, and announces the county.
func (s *Session) Hover(fips string) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	feature, ok := s.features[fips]
	if !ok {
		return Update{}, fmt.Errorf("hover %q: %w", fips, domain.ErrUnknownFeature)
	}
	s.countEvent("hover")

	prev := s.state.HoveredKey
	s.state.HoverEnter(fips)
	s.focused = fips

	u := Update{
		Styles:       s.stylesLocked(prev, fips),
		Announcement: domain.HoverAnnouncement(feature),
	}
	s.announceLocked(u.Announcement)
	return u, nil
}

// HoverExit clears the hover when fips is the hovered county. The selected
// county is not repainted so its emphasis persists.
func (s *Session) HoverExit(fips string) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.countEvent("hover_exit")
	if !s.state.HoverExit(fips) {
		return Update{Styles: []domain.FeatureStyle{}}
	}
	feature, ok := s.features[fips]
	if !ok || !s.styler.RestyleOnExit(feature, s.state) {
		return Update{Styles: []domain.FeatureStyle{}}
	}
	return Update{Styles: s.stylesLocked(fips)}
}

// Select commits fips as the selection. Unknown counties are rejected and the
// state is left unchanged.
func (s *Session) Select(ctx context.Context, fips string) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.selectLocked(ctx, fips)
	if err != nil {
		return Update{}, err
	}
	return u, nil
}

func (s *Session) selectLocked(ctx context.Context, fips string) (Update, error) {
	prev := s.state.SelectedKey
	if err := s.state.Select(fips, s.features); err != nil {
		return Update{}, fmt.Errorf("select %q: %w", fips, err)
	}
	s.countEvent("select")

	feature := s.features[fips]
	details := s.styler.Details(feature)
	s.details = &details

	u := Update{
		Styles:       s.stylesLocked(prev, fips),
		Announcement: domain.SelectionAnnouncement(feature),
		Details:      &details,
	}
	s.announceLocked(u.Announcement)
	s.playFeedback(ctx, "select")
	return u, nil
}

// Close clears the selection and its details; the hover is untouched.
func (s *Session) Close() Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.countEvent("close")
	prev := s.state.SelectedKey
	s.state.Close()
	s.details = nil
	if prev == "" {
		return Update{Styles: []domain.FeatureStyle{}}
	}

	u := Update{Styles: s.stylesLocked(prev)}
	if feature, ok := s.features[prev]; ok {
		u.Announcement = domain.CloseAnnouncement(feature)
	}
	s.announceLocked(u.Announcement)
	return u
}

// KeyDown routes a key press through the keyboard controller. Enter selects
// the last hovered county.
func (s *Session) KeyDown(key string) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.countEvent("key")
	s.pending = nil
	action := s.keyboard.HandleKey(key, s.focused)

	u := Update{Styles: []domain.FeatureStyle{}}
	if s.pending != nil {
		u = *s.pending
		s.pending = nil
	}
	u.Key = &action
	return u
}

// SetContrast switches the palette and repaints every county.
func (s *Session) SetContrast(mode domain.ContrastMode) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.countEvent("contrast")
	s.mode = mode
	u := Update{Styles: s.stylesLocked(s.order...)}
	if mode == domain.ContrastHigh {
		u.Announcement = "High contrast mode on"
	} else {
		u.Announcement = "High contrast mode off"
	}
	s.announceLocked(u.Announcement)
	return u
}

// ApplySnapshot replaces the county and point sets wholesale. Hover, selection,
// and focus that reference counties no longer present are reset to none.
func (s *Session) ApplySnapshot(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = snap
	s.features = domain.NewFeatureSet(snap.Features)
	s.order = make([]string, 0, len(s.features))
	seen := make(map[string]struct{}, len(s.features))
	for _, f := range snap.Features {
		if _, dup := seen[f.FIPS]; dup {
			continue
		}
		seen[f.FIPS] = struct{}{}
		s.order = append(s.order, f.FIPS)
	}

	hoverCleared, selectionCleared := s.state.Reconcile(s.features)
	if s.focused != "" && !s.features.Has(s.focused) {
		s.focused = ""
	}
	if selectionCleared {
		s.details = nil
		if s.metrics != nil {
			s.metrics.SelectionResets.Inc()
		}
	}
	if s.state.SelectedKey != "" {
		details := s.styler.Details(s.features[s.state.SelectedKey])
		s.details = &details
	}

	if s.metrics != nil {
		s.metrics.FeaturesLoaded.Set(float64(len(s.features)))
		s.metrics.PointsLoaded.Set(float64(len(snap.Points)))
	}
	s.logger.Info("snapshot applied",
		"snapshot_id", snap.ID,
		"features", len(s.features),
		"points", len(snap.Points),
		"hover_reset", hoverCleared,
		"selection_reset", selectionCleared,
	)
}

// LoadBatch applies the newest snapshot of a batch. Earlier ones are superseded
// by replace-on-arrival semantics.
func (s *Session) LoadBatch(_ context.Context, snaps []domain.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	s.ApplySnapshot(snaps[len(snaps)-1])
	return nil
}

// Styles returns the current style of every county in feed order.
func (s *Session) Styles() []domain.FeatureStyle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stylesLocked(s.order...)
}

// Features returns the current counties in feed order.
func (s *Session) Features() []domain.CountyFeature {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CountyFeature, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.features[k])
	}
	return out
}

// Legend returns the legend for the current contrast mode.
func (s *Session) Legend() []domain.LegendEntry {
	return s.LegendFor("")
}

// LegendFor returns the legend for mode, or for the current mode when empty.
func (s *Session) LegendFor(mode domain.ContrastMode) []domain.LegendEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode == "" {
		mode = s.mode
	}
	return s.styler.Scale().LegendFor(mode)
}

// Layers returns the point layers with markers clustered for zoom.
func (s *Session) Layers(zoom int) domain.Layers {
	s.mu.Lock()
	defer s.mu.Unlock()

	layers := s.snapshot.Layers
	if layers.HeatWeights == nil {
		layers = domain.Aggregate(nil, domain.DefaultHeatConfig(), domain.DefaultClusterConfig())
	}
	layers.Clusters = domain.ClusterAt(layers.Clusters, layers.Cluster, zoom)
	return layers
}

// Summary holds the formatted metrics and chart series for the current mode.
type Summary struct {
	TotalEnergy   string               `json:"total_energy"`
	AvgIrradiance string               `json:"avg_irradiance"`
	Series        []domain.ChartSeries `json:"series"`
}

// Summary formats the latest metrics and chart data.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		TotalEnergy:   domain.FormatMetric(s.snapshot.Metrics, domain.MetricTotalEnergy),
		AvgIrradiance: domain.FormatMetric(s.snapshot.Metrics, domain.MetricAvgIrradiance),
		Series:        domain.ChartSeriesFor(s.snapshot.Chart, s.mode),
	}
}

// State returns a copy of the session state.
func (s *Session) State() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		HoveredKey:  s.state.HoveredKey,
		SelectedKey: s.state.SelectedKey,
		FocusedKey:  s.focused,
		Mode:        s.mode,
		Viewport:    s.viewport,
		SnapshotID:  s.snapshot.ID,
		Features:    len(s.features),
		Points:      len(s.snapshot.Points),
	}
	if s.details != nil {
		d := *s.details
		v.Details = &d
	}
	return v
}

func (s *Session) stylesLocked(keys ...string) []domain.FeatureStyle {
	out := make([]domain.FeatureStyle, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		feature, ok := s.features[k]
		if !ok {
			continue
		}
		out = append(out, domain.FeatureStyle{FIPS: k, Style: s.styler.StyleFor(feature, s.state, s.mode)})
	}
	return out
}

func (s *Session) announceLocked(text string) {
	if text == "" || s.live == nil {
		return
	}
	s.live.Announce(text)
	if s.metrics != nil {
		s.metrics.Announcements.Inc()
	}
}

// playFeedback never lets a feedback failure interrupt the interaction.
func (s *Session) playFeedback(ctx context.Context, cue string) {
	if s.feedback == nil {
		return
	}
	if err := s.feedback.Play(ctx, cue); err != nil {
		s.logger.Warn("feedback failed", "cue", cue, "error", err)
		if s.metrics != nil {
			s.metrics.FeedbackErrors.Inc()
		}
	}
}

func (s *Session) countEvent(event string) {
	if s.metrics != nil {
		s.metrics.InteractionEvents.WithLabelValues(event).Inc()
	}
}
