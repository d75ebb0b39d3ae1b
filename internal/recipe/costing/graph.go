package costing

// Graph is the recipe composition graph: which recipe produces each derived
// ingredient, and which ingredients each recipe consumes.
type Graph struct {
	// ProducedBy maps a derived ingredient id to the recipe that produces it.
	ProducedBy map[int64]int64
	// Consumes maps a recipe id to the ingredient ids on its lines.
	Consumes map[int64][]int64
}

// DetectCycle reports whether letting recipeID produce derivedID would close a
// loop in the composition graph. It walks the consumption chain of recipeID
// depth-first; reaching derivedID, or an ingredient produced by recipeID
// itself, means the recipe would feed on its own output. The offending
// ingredient id is returned alongside.
func (g Graph) DetectCycle(recipeID, derivedID int64) (int64, bool) {
	visited := map[int64]bool{}

	var walk func(id int64) (int64, bool)
	walk = func(id int64) (int64, bool) {
		if visited[id] {
			return 0, false
		}
		visited[id] = true

		for _, ingredientID := range g.Consumes[id] {
			if ingredientID == derivedID {
				return ingredientID, true
			}
			producer, ok := g.ProducedBy[ingredientID]
			if !ok {
				continue
			}
			if producer == recipeID {
				return ingredientID, true
			}
			if offending, found := walk(producer); found {
				return offending, true
			}
		}
		return 0, false
	}

	return walk(recipeID)
}
