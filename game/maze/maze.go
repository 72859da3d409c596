/*
Package maze provides the procedural grid used by the navigation task.

A Grid is a square array of Cell values with one start cell, one end cell, a guaranteed
solution path between them and a scattering of dead-end branches hanging off that path.

Grids are produced by a Generator through a biased random walk from the top-left interior corner
to the bottom-right interior corner. The walk carries a step budget, after which it falls back to a
deterministic toward-goal walk, so generation always terminates.

A Grid is immutable once returned; consumers replace it wholesale instead of mutating it.
*/
package maze

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
)

const (
	DefaultSize = 15 // Grid size used by the reference task.

	minSize = 4
	maxSize = 64

	walkBudgetFactor = 4    // Random walk budget, as a multiple of the grid area.
	backwardProb     = 0.15 // Chance, per axis, of offering a backward move.
	branchProb       = 0.4  // Chance of seeding dead-ends around a solution cell.
	extendProb       = 0.5  // Chance of extending a dead-end one cell further.
)

var (
	ErrInvalidSize = errors.New("invalid grid size")
)

// Grid is a generated, read-only N×N cell array addressed by (x, y).
type Grid struct {
	size     int
	cells    [][]Cell // cells[x][y]
	start    CellPosition
	end      CellPosition
	solution []CellPosition
}

// Size returns N.
func (g *Grid) Size() int {
	return g.size
}

// InBound reports whether (x, y) lies inside the grid.
func (g *Grid) InBound(x, y int) bool {
	return x >= 0 && x < g.size && y >= 0 && y < g.size
}

// At returns the cell at (x, y). The boolean is false when the position is out of bounds.
func (g *Grid) At(x, y int) (Cell, bool) {
	if !g.InBound(x, y) {
		return Cell{}, false
	}
	return g.cells[x][y], true
}

// Start returns the start cell position.
func (g *Grid) Start() CellPosition {
	return g.start
}

// End returns the goal cell position.
func (g *Grid) End() CellPosition {
	return g.end
}

// SolutionPath returns a copy of the ordered walk from start to end.
// Positions may repeat when the walk doubled back on itself.
func (g *Grid) SolutionPath() []CellPosition {
	path := make([]CellPosition, len(g.solution))
	copy(path, g.solution)
	return path
}

// Rows returns a copy of the grid as rows of cells, rows[y][x].
func (g *Grid) Rows() [][]Cell {
	rows := make([][]Cell, g.size)
	for y := 0; y < g.size; y++ {
		rows[y] = make([]Cell, g.size)
		for x := 0; x < g.size; x++ {
			rows[y][x] = g.cells[x][y]
		}
	}
	return rows
}

// String provides a textual representation of the grid.
//
//	# wall   . solution   x dead-end   S start   E end
func (g *Grid) String() string {
	var b strings.Builder
	for y := 0; y < g.size; y++ {
		for x := 0; x < g.size; x++ {
			b.WriteByte(symbol(g.cells[x][y]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func symbol(c Cell) byte {
	switch c.Kind {
	case Start:
		return 'S'
	case End:
		return 'E'
	case Path:
		if c.Role == RoleDeadEnd {
			return 'x'
		}
		return '.'
	default:
		return '#'
	}
}

// Generator builds grids from an injected random source.
// It is safe for concurrent use.
type Generator struct {
	size int
	rng  *rand.Rand
	mu   sync.Mutex
}

// NewGenerator creates a generator for size×size grids.
// A nil rng is replaced with a time-independent default source seeded with 1.
func NewGenerator(size int, rng *rand.Rand) (*Generator, error) {
	if size < minSize || size > maxSize {
		return nil, ErrInvalidSize
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Generator{size: size, rng: rng}, nil
}

// Generate returns a freshly allocated grid.
func (gen *Generator) Generate() *Grid {
	gen.mu.Lock()
	defer gen.mu.Unlock()

	g := newWallGrid(gen.size)
	gen.walkSolution(g)
	gen.seedDeadEnds(g)
	return g
}

// newWallGrid initializes every cell to a wall.
func newWallGrid(size int) *Grid {
	cells := make([][]Cell, size)
	for x := range cells {
		cells[x] = make([]Cell, size)
		for y := range cells[x] {
			cells[x][y] = Cell{X: x, Y: y, Kind: Wall, Role: RoleNone}
		}
	}
	return &Grid{
		size:  size,
		cells: cells,
		start: CellPosition{X: 1, Y: 1},
		end:   CellPosition{X: size - 2, Y: size - 2},
	}
}

// interior reports whether p is inside the outer wall ring.
func (g *Grid) interior(p CellPosition) bool {
	return p.X > 0 && p.X < g.size-1 && p.Y > 0 && p.Y < g.size-1
}

func (g *Grid) set(p CellPosition, k Kind, r Role) {
	g.cells[p.X][p.Y] = Cell{X: p.X, Y: p.Y, Kind: k, Role: r}
}

// walkSolution carves the solution path with a biased random walk.
// After walkBudgetFactor*N*N steps the walk only takes toward-goal moves,
// each of which shortens the Manhattan distance to the end by one.
func (gen *Generator) walkSolution(g *Grid) {
	budget := walkBudgetFactor * g.size * g.size
	cur := g.start
	g.solution = append(g.solution, cur)
	g.set(cur, Path, RoleSolution)

	for steps := 0; cur != g.end; steps++ {
		if steps < budget {
			cur = gen.nextStep(g, cur)
		} else {
			cur = towardGoal(cur, g.end)
		}
		g.set(cur, Path, RoleSolution)
		g.solution = append(g.solution, cur)
	}

	// Marked last so a walk that doubled back over them cannot demote them.
	g.set(g.start, Start, RoleSolution)
	g.set(g.end, End, RoleSolution)
}

// nextStep picks one candidate move: toward the goal on either axis, plus an
// occasional backward move to make the path wind.
func (gen *Generator) nextStep(g *Grid, cur CellPosition) CellPosition {
	candidates := make([]CellPosition, 0, 4)
	if cur.X < g.end.X {
		candidates = append(candidates, CellPosition{X: cur.X + 1, Y: cur.Y})
	}
	if cur.Y < g.end.Y {
		candidates = append(candidates, CellPosition{X: cur.X, Y: cur.Y + 1})
	}
	if cur.X > g.start.X && gen.rng.Float64() < backwardProb {
		candidates = append(candidates, CellPosition{X: cur.X - 1, Y: cur.Y})
	}
	if cur.Y > g.start.Y && gen.rng.Float64() < backwardProb {
		candidates = append(candidates, CellPosition{X: cur.X, Y: cur.Y - 1})
	}

	valid := candidates[:0]
	for _, c := range candidates {
		if g.interior(c) {
			valid = append(valid, c)
		}
	}

	if len(valid) == 0 {
		return towardGoal(cur, g.end)
	}
	return valid[gen.rng.Intn(len(valid))]
}

// towardGoal moves one cell closer to end, x axis first.
func towardGoal(cur, end CellPosition) CellPosition {
	switch {
	case cur.X < end.X:
		cur.X++
	case cur.X > end.X:
		cur.X--
	case cur.Y < end.Y:
		cur.Y++
	case cur.Y > end.Y:
		cur.Y--
	}
	return cur
}

// seedDeadEnds branches decoy cells off the solution path.
// Only wall cells are converted, so solution and dead-end cells never overlap.
func (gen *Generator) seedDeadEnds(g *Grid) {
	for _, cell := range g.solution {
		if gen.rng.Float64() >= branchProb {
			continue
		}

		for _, d := range Directions {
			n := cell.Add(d)
			if !g.interior(n) || g.cells[n.X][n.Y].Kind != Wall {
				continue
			}
			g.set(n, Path, RoleDeadEnd)

			ext := n.Add(d)
			if g.interior(ext) && gen.rng.Float64() < extendProb && g.cells[ext.X][ext.Y].Kind == Wall {
				g.set(ext, Path, RoleDeadEnd)
			}
		}
	}
}
