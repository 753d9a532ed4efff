package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/entity"
)

type BotService interface {
	ChooseMove(state entity.MatchState, side entity.Side) (int, bool)
}

type botService struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewBotService returns the heuristic opponent. A nil rng is seeded from the clock.
func NewBotService(rng *rand.Rand) BotService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint: gosec // it's ok
	}

	return &botService{
		rng: rng,
	}
}

// ChooseMove picks a cell for side: win now, block now, center, then any empty
// cell at random. It returns false when side can't place a piece.
func (that *botService) ChooseMove(state entity.MatchState, side entity.Side) (int, bool) {
	if state.Remaining.Of(side) == 0 {
		return 0, false
	}

	if cell, ok := findStrategicMove(state.Board, side); ok {
		return cell, true
	}

	if cell, ok := findStrategicMove(state.Board, side.Opponent()); ok {
		return cell, true
	}

	if state.Board[entity.CenterCell] == entity.EmptyCell {
		return entity.CenterCell, true
	}

	availableCells := state.EmptyCells()
	if len(availableCells) == 0 {
		return 0, false
	}

	that.mu.Lock()
	chosenCell := availableCells[that.rng.Intn(len(availableCells))]
	that.mu.Unlock()

	return chosenCell, true
}

// findStrategicMove - finds the empty cell of a line where side already holds the other two.
func findStrategicMove(board [entity.BoardSize]entity.Side, side entity.Side) (int, bool) {
	for _, combo := range entity.WinCombos {
		own, empty := 0, -1

		for _, cell := range combo {
			switch board[cell] {
			case side:
				own++
			case entity.EmptyCell:
				empty = cell
			}
		}

		if own == 2 && empty != -1 {
			return empty, true
		}
	}

	return 0, false
}
