package cae

// zoomLadder is the full candidate set of cell sizes in pixels. The active
// ladder is this sequence filtered to the configured zoom range.
var zoomLadder = []uint32{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10,
	12, 14, 15, 16, 18, 20, 24, 25, 28, 30, 32, 36, 40,
	45, 50, 60, 70, 75, 80, 90, 100, 120, 140, 150, 160, 180, 200,
	250, 300, 350, 400, 450, 500, 600, 700, 800, 900, 1000,
}

// zoomLevels returns the ladder filtered to [base*ZoomMin, base*ZoomMax],
// with the lower bound clamped to 1 pixel per cell.
func zoomLevels(base uint32) []uint32 {
	minCS := uint32(float32(base) * ZoomMin)
	if minCS < 1 {
		minCS = 1
	}
	maxCS := uint32(float32(base) * ZoomMax)

	levels := make([]uint32, 0, len(zoomLadder))
	for _, s := range zoomLadder {
		if s >= minCS && s <= maxCS {
			levels = append(levels, s)
		}
	}
	return levels
}

// stepZoomLevel picks the ladder entry one step from current. A positive
// delta zooms in (larger cells), a negative delta zooms out. The current
// position is the first entry >= current, or the last entry if current is
// past the ladder.
func stepZoomLevel(levels []uint32, current uint32, delta float32) uint32 {
	if len(levels) == 0 {
		return current
	}

	idx := len(levels) - 1
	for i, s := range levels {
		if s >= current {
			idx = i
			break
		}
	}

	if delta > 0 {
		if idx < len(levels)-1 {
			idx++
		}
	} else {
		if idx > 0 {
			idx--
		}
	}
	return levels[idx]
}

// nearestZoomLevel snaps target to the ladder entry with the minimum
// absolute difference. Used by pinch zoom, which produces a continuous
// target from the finger distance ratio.
func nearestZoomLevel(levels []uint32, target uint32) uint32 {
	if len(levels) == 0 {
		return target
	}
	best := levels[0]
	bestDiff := absDiff(levels[0], target)
	for _, s := range levels[1:] {
		if d := absDiff(s, target); d < bestDiff {
			best = s
			bestDiff = d
		}
	}
	return best
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
