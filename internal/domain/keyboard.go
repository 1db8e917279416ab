package domain

// PanStep is the viewport shift in pixels for one arrow key press.
const PanStep = 50

// Panner is the map viewport. It may be absent when no map is mounted.
type Panner interface {
	PanBy(dx, dy int)
}

// Selector commits a selection for a feature key.
type Selector interface {
	SelectKey(key string) error
}

// KeyAction describes what a key press did.
type KeyAction struct {
	Key      string `json:"key"`
	DX       int    `json:"dx,omitempty"`
	DY       int    `json:"dy,omitempty"`
	Panned   bool   `json:"panned"`
	Selected string `json:"selected,omitempty"`
}

var panDeltas = map[string][2]int{
	"ArrowUp":    {0, -PanStep},
	"ArrowDown":  {0, PanStep},
	"ArrowLeft":  {-PanStep, 0},
	"ArrowRight": {PanStep, 0},
}

// PanDelta returns the viewport shift for an arrow key.
func PanDelta(key string) (dx, dy int, ok bool) {
	d, ok := panDeltas[key]
	return d[0], d[1], ok
}

// KeyboardController maps key presses to pans and selection confirms.
type KeyboardController struct {
	panner   Panner
	selector Selector
}

// NewKeyboardController creates a controller. Either collaborator may be nil,
// which turns the corresponding keys into no-ops.
func NewKeyboardController(panner Panner, selector Selector) *KeyboardController {
	return &KeyboardController{panner: panner, selector: selector}
}

// HandleKey applies key. Arrow keys pan the viewport; Enter selects focused
// when it is non-empty. Unrecognized keys and rejected selections do nothing.
func (k *KeyboardController) HandleKey(key, focused string) KeyAction {
	action := KeyAction{Key: key}

	if dx, dy, ok := PanDelta(key); ok {
		if k.panner == nil {
			return action
		}
		k.panner.PanBy(dx, dy)
		action.DX, action.DY, action.Panned = dx, dy, true
		return action
	}

	if key == "Enter" && focused != "" && k.selector != nil {
		if err := k.selector.SelectKey(focused); err == nil {
			action.Selected = focused
		}
	}
	return action
}
