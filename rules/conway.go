package rules

/*
ApplyConwayRules applies Conway's Game of Life rules to determine the next state of a cell.

A live cell with fewer than two or more than three live neighbors dies, a dead
cell with exactly three live neighbors is born, and every other cell keeps its
current state.
*/
func ApplyConwayRules(neighbors int, alive bool) bool {
	switch {
	case alive && (neighbors < 2 || neighbors > 3):
		return false
	case !alive && neighbors == 3:
		return true
	default:
		return alive
	}
}
