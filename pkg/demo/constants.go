package demo

const (
	// Width is the width of the level
	Width float64 = 640.0
	// Height is the height of the level
	Height float64 = 480.0
	// CellSize is the cell size of the collision space
	CellSize int = 16
	// WallThickness is the thickness of the level walls
	WallThickness float64 = 16.0

	// BodySize is the width and height of every body
	BodySize float64 = 32.0
	// PlayerSpeed is the speed at which the player moves
	PlayerSpeed float64 = 350.0
	// PlayerJumpSpeed is the speed at which the player jumps
	PlayerJumpSpeed float64 = 750.0
	// PlayerStartingX is where the player spawns
	PlayerStartingX float64 = 320.0
	// PlayerStartingY is where the player spawns
	PlayerStartingY float64 = 240.0
	// GravityMultiplier scales kinematic.Gravity to pixels
	GravityMultiplier float64 = 300.0

	// CrateStartingY is where crates spawn
	CrateStartingY float64 = 160.0
)

const (
	CollisionSpaceTagLevel string = "level"
	CollisionSpaceTagBody  string = "body"
)

// CrateStartingX lists the spawn columns of the crates.
var CrateStartingX = []float64{100.0, 500.0}
