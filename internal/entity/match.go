package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
)

const (
	StatusInProgress = "in_progress"
	StatusWon        = "won"
	StatusBlocked    = "blocked"
)

const (
	BoardSize = 9
	// CenterCell is the middle of the 3x3 board.
	CenterCell = 4
	// PiecesPerSide is the supply every side starts a match with.
	PiecesPerSide = 4
	// MaxLivePieces is how many placements stay on the board before the oldest one is evicted.
	MaxLivePieces = 6
)

var (
	ErrInvalidSide = errors.New("invalid side")

	WinCombos = [][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// MoveRecord is one placement still counted in the eviction window.
type MoveRecord struct {
	Side Side `json:"side"`
	Cell int  `json:"cell"`
}

// MatchState is the whole board engine state. It is a value: PlaceAt and Reset
// return a new state and never modify the receiver.
type MatchState struct {
	Board        [BoardSize]Side `json:"board"`
	Remaining    PieceBudget     `json:"remaining"`
	History      []MoveRecord    `json:"history"`
	TurnCount    int             `json:"turn_count"`
	Turn         Side            `json:"player_turn"`
	Status       string          `json:"status"`
	Winner       Side            `json:"winner,omitempty"`
	WinningLines [][3]int        `json:"winning_lines,omitempty"`
}

func NewMatchState() MatchState {
	return MatchState{
		Board:     [BoardSize]Side{EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell},
		Remaining: PieceBudget{X: PiecesPerSide, O: PiecesPerSide},
		History:   make([]MoveRecord, 0, MaxLivePieces+1),
		Turn:      PlayerX,
		Status:    StatusInProgress,
	}
}

func (that MatchState) Reset() MatchState {
	return NewMatchState()
}

// Clone returns a deep copy, safe to hand out as a snapshot.
func (that MatchState) Clone() MatchState {
	clone := that

	clone.History = make([]MoveRecord, len(that.History), max(len(that.History), MaxLivePieces+1))
	copy(clone.History, that.History)

	if that.WinningLines != nil {
		clone.WinningLines = make([][3]int, len(that.WinningLines))
		copy(clone.WinningLines, that.WinningLines)
	}

	return clone
}

// PlaceAt puts a piece of side on cell. The win check runs before eviction, so
// a winning seventh placement keeps every piece on the board.
func (that MatchState) PlaceAt(side Side, cell int) (MatchState, error) {
	if cell < 0 || cell >= BoardSize {
		return that, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if !side.IsValid() {
		return that, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}

	if !that.IsInProgress() {
		return that, apperror.ErrGameFinished
	}

	if that.Board[cell] != EmptyCell {
		return that, apperror.ErrCellOccupied
	}

	if that.Remaining.Of(side) == 0 {
		return that, apperror.ErrNoPiecesLeft
	}

	next := that.Clone()
	next.Board[cell] = side
	next.Remaining.add(side, -1)
	next.History = append(next.History, MoveRecord{Side: side, Cell: cell})
	next.TurnCount++

	if lines := WinningLines(next.Board, side); len(lines) > 0 {
		next.Status = StatusWon
		next.Winner = side
		next.WinningLines = lines
		return next, nil
	}

	if len(next.History) > MaxLivePieces {
		next.evictOldest()
	}

	next.Turn = side.Opponent()

	if next.Remaining.Of(next.Turn) == 0 || len(next.EmptyCells()) == 0 {
		next.Status = StatusBlocked
	}

	return next, nil
}

func (that *MatchState) evictOldest() {
	oldest := that.History[0]
	that.History = append(that.History[:0], that.History[1:]...)

	that.Board[oldest.Cell] = EmptyCell
	that.Remaining.add(oldest.Side, 1)
}

func (that MatchState) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that MatchState) IsWon() bool {
	return that.Status == StatusWon
}

func (that MatchState) IsBlocked() bool {
	return that.Status == StatusBlocked
}

// WinningLine is the line named in the outcome; the others are only highlighted.
func (that MatchState) WinningLine() ([3]int, bool) {
	if len(that.WinningLines) == 0 {
		return [3]int{}, false
	}
	return that.WinningLines[0], true
}

func (that MatchState) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range that.Board {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}
	return cells
}

// Occupied counts the pieces currently on the board.
func (that MatchState) Occupied() int {
	return BoardSize - len(that.EmptyCells())
}

// WinningLines returns every line fully owned by side, in WinCombos order.
func WinningLines(board [BoardSize]Side, side Side) [][3]int {
	var lines [][3]int

	for _, combo := range WinCombos {
		if board[combo[0]] == side && board[combo[1]] == side && board[combo[2]] == side {
			lines = append(lines, combo)
		}
	}

	return lines
}
