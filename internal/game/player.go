package game

// PlayerKind discriminates the player variants
type PlayerKind string

const (
	KindHuman PlayerKind = "human"
	KindAI    PlayerKind = "ai"
)

// Difficulty selects an AI play strategy
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
)

// Player represents a seated player: a human with connection state or
// an AI with a difficulty. Kind is the variant discriminant; Connected
// is meaningful only for humans, Difficulty only for AIs. Seat identity
// is the player's index in the game's player list, not a field here.
type Player struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Kind       PlayerKind `json:"kind"`
	Connected  bool       `json:"connected,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

// NewHuman creates a connected human player
func NewHuman(id, name string) Player {
	return Player{ID: id, Name: name, Kind: KindHuman, Connected: true}
}

// NewAI creates an AI player with the given difficulty
func NewAI(id, name string, difficulty Difficulty) Player {
	return Player{ID: id, Name: name, Kind: KindAI, Difficulty: difficulty}
}

// IsAI returns true for AI players
func (p Player) IsAI() bool {
	return p.Kind == KindAI
}

// IsHuman returns true for human players
func (p Player) IsHuman() bool {
	return p.Kind == KindHuman
}
