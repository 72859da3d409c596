package maze

// Kind is the structural type of a cell.
type Kind int

const (
	Wall Kind = iota
	Path
	Start
	End
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Wall:
		return "wall"
	case Path:
		return "path"
	case Start:
		return "start"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// Role tells whether a walkable cell belongs to the solution or to a decoy branch.
type Role int

const (
	RoleNone Role = iota
	RoleSolution
	RoleDeadEnd
)

// String returns the name used on the wire and in logs.
func (r Role) String() string {
	switch r {
	case RoleSolution:
		return "solution"
	case RoleDeadEnd:
		return "dead-end"
	default:
		return "none"
	}
}

// Cell represents a single cell in the grid.
type Cell struct {
	X    int  // Column index.
	Y    int  // Row index.
	Kind Kind // Structural kind of the cell.
	Role Role // Path role; always RoleNone for walls.
}

// Walkable reports whether the agent may stand on the cell.
func (c Cell) Walkable() bool {
	return c.Kind != Wall
}

// CellPosition represents the position of a cell in the grid.
type CellPosition struct {
	X int
	Y int
}

// Add returns the position shifted by d.
func (p CellPosition) Add(d CellPosition) CellPosition {
	return CellPosition{X: p.X + d.X, Y: p.Y + d.Y}
}

// Manhattan returns the 4-connected distance between p and o.
func (p CellPosition) Manhattan(o CellPosition) int {
	return abs(p.X-o.X) + abs(p.Y-o.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Directions holds the four neighbor offsets in a fixed order.
var Directions = []CellPosition{
	{X: 1, Y: 0},
	{X: -1, Y: 0},
	{X: 0, Y: 1},
	{X: 0, Y: -1},
}
