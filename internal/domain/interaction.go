package domain

import "errors"

// ErrUnknownFeature is returned when an interaction names a FIPS code that is
// not in the current feature set.
var ErrUnknownFeature = errors.New("unknown feature")

// InteractionState tracks the hovered and selected county of one map. Hover
// and selection are independent; an empty key means none.
type InteractionState struct {
	HoveredKey  string `json:"hovered_key,omitempty"`
	SelectedKey string `json:"selected_key,omitempty"`
}

// HoverEnter marks key as hovered, replacing any previous hover.
func (s *InteractionState) HoverEnter(key string) {
	s.HoveredKey = key
}

// HoverExit clears the hover only when key is the one currently hovered.
// It reports whether the state changed.
func (s *InteractionState) HoverExit(key string) bool {
	if key == "" || s.HoveredKey != key {
		return false
	}
	s.HoveredKey = ""
	return true
}

// Select replaces the selection with key. Keys absent from features are
// rejected with ErrUnknownFeature and leave the state untouched.
func (s *InteractionState) Select(key string, features FeatureSet) error {
	if !features.Has(key) {
		return ErrUnknownFeature
	}
	s.SelectedKey = key
	return nil
}

// Close clears the selection and leaves the hover alone.
func (s *InteractionState) Close() {
	s.SelectedKey = ""
}

// Reconcile drops hovered and selected keys that no longer exist in features.
// It returns which keys were cleared.
func (s *InteractionState) Reconcile(features FeatureSet) (hoverCleared, selectionCleared bool) {
	if s.HoveredKey != "" && !features.Has(s.HoveredKey) {
		s.HoveredKey = ""
		hoverCleared = true
	}
	if s.SelectedKey != "" && !features.Has(s.SelectedKey) {
		s.SelectedKey = ""
		selectionCleared = true
	}
	return hoverCleared, selectionCleared
}

// IsHovered reports whether fips is the hovered county.
func (s InteractionState) IsHovered(fips string) bool {
	return fips != "" && s.HoveredKey == fips
}

// IsSelected reports whether fips is the selected county.
func (s InteractionState) IsSelected(fips string) bool {
	return fips != "" && s.SelectedKey == fips
}
