package nutrition

import "math"

// Macros is a per-serving macro snapshot.
type Macros struct {
	Calories float64 `db:"calories" json:"calories"`
	Carbs    float64 `db:"carbs" json:"carbs"`
	Protein  float64 `db:"protein" json:"protein"`
	Fat      float64 `db:"fat" json:"fat"`
}

// Ingredient is one recipe line joined with its product's per-serving
// macro values.
type Ingredient struct {
	ProductID   int64   `db:"product_id"`
	Amount      float64 `db:"amount"`
	Unit        string  `db:"unit"`
	NumServings float64 `db:"num_servings"`
	PerServing  Macros
}

// containerUnits are the quantity unit names that denote a whole
// package rather than one serving. An ingredient in one of these units
// is multiplied by the product's servings-per-container.
var containerUnits = map[string]bool{
	"container": true,
	"pack":      true,
	"package":   true,
	"box":       true,
	"bottle":    true,
	"can":       true,
	"jar":       true,
}

func isContainerUnit(unit string) bool {
	return containerUnits[unit]
}

// aggregateMacros computes the per-serving snapshot for a recipe.
// Returns ok=false when baseServings is non-positive, in which case
// the existing snapshot must be left unchanged.
func aggregateMacros(baseServings float64, ingredients []Ingredient) (Macros, bool) {
	if baseServings <= 0 {
		return Macros{}, false
	}

	var total Macros
	for _, ing := range ingredients {
		multiplier := ing.Amount
		if isContainerUnit(ing.Unit) {
			multiplier = ing.Amount * ing.NumServings
		}
		total.Calories += multiplier * ing.PerServing.Calories
		total.Carbs += multiplier * ing.PerServing.Carbs
		total.Protein += multiplier * ing.PerServing.Protein
		total.Fat += multiplier * ing.PerServing.Fat
	}

	return Macros{
		Calories: math.Round(total.Calories / baseServings),
		Carbs:    round2(total.Carbs / baseServings),
		Protein:  round2(total.Protein / baseServings),
		Fat:      round2(total.Fat / baseServings),
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
