package core

import (
	"fmt"
	"math"
)

// TileKey uniquely identifies a cached tile. Tiles under different
// (Rule, StateHash) never alias: changing either drops the whole cache.
type TileKey struct {
	Rule      uint8
	StateHash uint64
	TX        int32
	TY        int32
}

func (k TileKey) String() string {
	return fmt.Sprintf("tile(%d, %d)", k.TX, k.TY)
}

// DivEuclid returns the Euclidean quotient of a/b: the unique q with
// a = q*b + r and 0 <= r < b for b > 0. Unlike Go's truncating division
// it rounds toward negative infinity, so negative world coordinates map
// to the correct tile.
func DivEuclid(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a^b) < 0 {
		q--
	}
	return q
}

// TileGeometry describes the compute extent of one tile. The automaton's
// information cone expands by one cell per generation in each direction, so
// a tile whose deepest row is generation end needs end columns of padding on
// both sides for its edge cells to carry full neighbor history from the seed.
type TileGeometry struct {
	// GenerationEnd is (ty+1)*T, the first generation past the tile.
	GenerationEnd int64
	// Padding is the horizontal padding on each side, max(0, GenerationEnd).
	Padding uint32
	// SimWidth is the simulated row width, T + 2*Padding.
	SimWidth uint32
	// BufHeight is the history buffer height, GenerationEnd + 1.
	BufHeight uint32
	// RowOffset is the first history row belonging to the tile, ty*T.
	RowOffset uint32
	// WorldXStart is the world column of the first core (unpadded) cell, tx*T.
	WorldXStart int32
}

// Geometry derives the compute extent of tile (tx, ty) with side length
// tileSize. ty must be non-negative: generations before 0 do not exist and
// the assembler never requests them. Coordinates whose cell extent overflows
// signed 32-bit arithmetic are a configuration error.
func Geometry(tx, ty int32, tileSize uint32) (TileGeometry, error) {
	if ty < 0 {
		return TileGeometry{}, fmt.Errorf("tile geometry: negative tile row %d", ty)
	}
	t := int64(tileSize)
	xStart := int64(tx) * t
	xEnd := xStart + t
	genEnd := (int64(ty) + 1) * t
	if xStart < math.MinInt32 || xEnd > math.MaxInt32 || genEnd > math.MaxInt32 {
		return TileGeometry{}, fmt.Errorf("tile geometry: tile (%d, %d) with size %d overflows 32-bit cell coordinates", tx, ty, tileSize)
	}

	return TileGeometry{
		GenerationEnd: genEnd,
		Padding:       uint32(genEnd),
		SimWidth:      tileSize + 2*uint32(genEnd),
		BufHeight:     uint32(genEnd) + 1,
		RowOffset:     uint32(int64(ty) * t),
		WorldXStart:   int32(xStart),
	}, nil
}

// TileRange is an inclusive rectangle of tile coordinates.
type TileRange struct {
	X0, X1 int32 // inclusive
	Y0, Y1 int32 // inclusive
}

// CoveringTiles returns the tile coordinates covering the half-open world
// rectangle x in [xStart, xEnd), y in [yStart, yEnd). The rectangle must be
// non-empty and yStart must be >= 0.
func CoveringTiles(xStart, xEnd, yStart, yEnd int32, tileSize uint32) TileRange {
	t := int32(tileSize)
	return TileRange{
		X0: DivEuclid(xStart, t),
		X1: DivEuclid(xEnd-1, t),
		Y0: DivEuclid(yStart, t),
		Y1: DivEuclid(yEnd-1, t),
	}
}
