package entity

// Side is a board mark. The empty string marks an empty cell.
type Side string

const (
	PlayerX Side = "X"
	PlayerO Side = "O"

	EmptyCell Side = ""
)

func (that Side) IsValid() bool {
	return that == PlayerX || that == PlayerO
}

func (that Side) Opponent() Side {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (that Side) String() string {
	return string(that)
}

// PieceBudget holds the pieces each side can still place.
type PieceBudget struct {
	X int `json:"X"`
	O int `json:"O"`
}

func (that PieceBudget) Of(side Side) int {
	switch side {
	case PlayerX:
		return that.X
	case PlayerO:
		return that.O
	default:
		return 0
	}
}

func (that PieceBudget) Total() int {
	return that.X + that.O
}

func (that *PieceBudget) add(side Side, delta int) {
	switch side {
	case PlayerX:
		that.X += delta
	case PlayerO:
		that.O += delta
	}
}
