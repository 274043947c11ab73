package cae

import (
	"net/url"
	"testing"
)

func TestEncodeLink(t *testing.T) {
	vp := Viewport{OffsetX: -40.5, OffsetY: 12, CellSize: 20}
	v := EncodeLink(90, "0110", vp)

	if got := v.Get("rule"); got != "90" {
		t.Errorf("rule = %q, want 90", got)
	}
	if got := v.Get("initial-state"); got != "0110" {
		t.Errorf("initial-state = %q", got)
	}
	if got := v.Get("vx"); got != "-40.5" {
		t.Errorf("vx = %q, want -40.5", got)
	}
	if got := v.Get("vy"); got != "12" {
		t.Errorf("vy = %q, want 12", got)
	}
	if got := v.Get("vzoom"); got != "20" {
		t.Errorf("vzoom = %q, want 20", got)
	}

	// Default state is omitted.
	v = EncodeLink(30, "", vp)
	if _, ok := v["initial-state"]; ok {
		t.Error("default initial state must be omitted")
	}
}

func TestDecodeLinkRoundTrip(t *testing.T) {
	vp := Viewport{OffsetX: -17.25, OffsetY: 3, CellSize: 14}
	q := EncodeLink(110, "101", vp)

	gotCfg, gotVP := DecodeLink(q, DefaultConfig(), Viewport{OffsetX: 0, OffsetY: 0, CellSize: DefaultCellSize})
	if gotCfg.Rule != 110 {
		t.Errorf("Rule = %d, want 110", gotCfg.Rule)
	}
	if gotCfg.InitialState != "101" {
		t.Errorf("InitialState = %q, want 101", gotCfg.InitialState)
	}
	if gotVP != vp {
		t.Errorf("viewport = %+v, want %+v", gotVP, vp)
	}
}

func TestDecodeLinkPartialAndMalformed(t *testing.T) {
	def := DefaultConfig()
	defVP := Viewport{OffsetX: -40, OffsetY: 0, CellSize: 10}

	q, _ := url.ParseQuery("rule=999&initial-state=xy&vx=abc&vy=-5&vzoom=0")
	cfg, vp := DecodeLink(q, def, defVP)

	// Every malformed field falls back to its default.
	if cfg.Rule != def.Rule {
		t.Errorf("Rule = %d, want default %d", cfg.Rule, def.Rule)
	}
	if cfg.InitialState != "" {
		t.Errorf("InitialState = %q, want empty", cfg.InitialState)
	}
	if vp != defVP {
		t.Errorf("viewport = %+v, want default %+v", vp, defVP)
	}

	// A valid subset applies alone.
	q, _ = url.ParseQuery("vzoom=25")
	_, vp = DecodeLink(q, def, defVP)
	if vp.CellSize != 25 {
		t.Errorf("CellSize = %d, want 25", vp.CellSize)
	}
	if vp.OffsetX != defVP.OffsetX {
		t.Errorf("OffsetX changed: %v", vp.OffsetX)
	}
}
