package kinetix

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// spatialHashGrid is the broad phase: bodies are hashed into uniform cells by
// their world AABB, and only bodies sharing a cell become candidate pairs.
type spatialHashGrid struct {
	cellSize float32
	cells    map[uint64][]int
}

func newSpatialHashGrid(cellSize float32) *spatialHashGrid {
	if cellSize <= 0 {
		cellSize = 2.0
	}
	return &spatialHashGrid{
		cellSize: cellSize,
		cells:    make(map[uint64][]int),
	}
}

func (g *spatialHashGrid) clear() {
	for k := range g.cells {
		delete(g.cells, k)
	}
}

func (g *spatialHashGrid) insert(idx int, min, max mgl32.Vec3) {
	minX, maxX := g.cellIndex(min.X()), g.cellIndex(max.X())
	minY, maxY := g.cellIndex(min.Y()), g.cellIndex(max.Y())
	minZ, maxZ := g.cellIndex(min.Z()), g.cellIndex(max.Z())

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				key := g.hashKey(x, y, z)
				g.cells[key] = append(g.cells[key], idx)
			}
		}
	}
}

// query returns the deduplicated set of indices whose cells intersect the AABB.
func (g *spatialHashGrid) query(min, max mgl32.Vec3) []int {
	minX, maxX := g.cellIndex(min.X()), g.cellIndex(max.X())
	minY, maxY := g.cellIndex(min.Y()), g.cellIndex(max.Y())
	minZ, maxZ := g.cellIndex(min.Z()), g.cellIndex(max.Z())

	seen := make(map[int]struct{})
	var results []int
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				for _, idx := range g.cells[g.hashKey(x, y, z)] {
					if _, ok := seen[idx]; !ok {
						seen[idx] = struct{}{}
						results = append(results, idx)
					}
				}
			}
		}
	}
	return results
}

func (g *spatialHashGrid) cellIndex(pos float32) int {
	return int(math32.Floor(pos / g.cellSize))
}

// Large primes for coordinate mixing.
func (g *spatialHashGrid) hashKey(x, y, z int) uint64 {
	const p1 = 73856093
	const p2 = 19349663
	const p3 = 83492791
	return uint64(x*p1 ^ y*p2 ^ z*p3)
}
