package cae

import (
	"net/url"
	"strconv"
)

// Shareable-link query parameter names. The web collaborator refreshes the
// viewport parameters live as the user pans and zooms.
const (
	linkParamRule         = "rule"
	linkParamInitialState = "initial-state"
	linkParamViewportX    = "vx"
	linkParamViewportY    = "vy"
	linkParamZoom         = "vzoom"
)

// EncodeLink builds the shareable URL query for the given rule, initial
// state, and viewport. The default single-cell state is omitted.
func EncodeLink(rule uint8, initialState string, vp Viewport) url.Values {
	v := url.Values{}
	v.Set(linkParamRule, strconv.Itoa(int(rule)))
	if initialState != "" {
		v.Set(linkParamInitialState, initialState)
	}
	v.Set(linkParamViewportX, strconv.FormatFloat(float64(vp.OffsetX), 'f', -1, 32))
	v.Set(linkParamViewportY, strconv.FormatFloat(float64(vp.OffsetY), 'f', -1, 32))
	v.Set(linkParamZoom, strconv.FormatUint(uint64(vp.CellSize), 10))
	return v
}

// DecodeLink applies the recognized query parameters onto cfg and vp,
// field by field. Missing or malformed values leave the corresponding
// field untouched, so partial links still work. The returned viewport is
// clamped to valid ranges by the controller when applied.
func DecodeLink(q url.Values, cfg Config, vp Viewport) (Config, Viewport) {
	if s := q.Get(linkParamRule); s != "" {
		if n, err := strconv.ParseUint(s, 10, 8); err == nil {
			cfg.Rule = uint8(n)
		}
	}
	if s := q.Get(linkParamInitialState); s != "" && validBinary(s) {
		cfg.InitialState = s
	}
	if s := q.Get(linkParamViewportX); s != "" {
		if f, err := strconv.ParseFloat(s, 32); err == nil {
			vp.OffsetX = float32(f)
		}
	}
	if s := q.Get(linkParamViewportY); s != "" {
		if f, err := strconv.ParseFloat(s, 32); err == nil && f >= 0 {
			vp.OffsetY = float32(f)
		}
	}
	if s := q.Get(linkParamZoom); s != "" {
		if n, err := strconv.ParseUint(s, 10, 32); err == nil && n >= 1 {
			vp.CellSize = uint32(n)
		}
	}
	return cfg, vp
}

// validBinary reports whether s consists only of '0' and '1'. Unlike
// ParseUint it has no length limit.
func validBinary(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '0' && s[i] != '1' {
			return false
		}
	}
	return len(s) > 0
}
