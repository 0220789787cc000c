package models

// RecipeIngredient is one line of a recipe's ingredient list. Available is
// true when the user already has it.
type RecipeIngredient struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Available  bool   `json:"available"`
	Substitute string `json:"substitute,omitempty"`
}

type Recipe struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Ingredients     []RecipeIngredient `json:"ingredients"`
	Steps           []string           `json:"steps"`
	CookingTime     string             `json:"cooking_time"`
	Difficulty      string             `json:"difficulty"`
	Cuisine         string             `json:"cuisine,omitempty"`
	MatchPercentage int                `json:"match_percentage"`
	Rating          float64            `json:"rating,omitempty"`
}

// Preferences narrows a recipe search. Empty fields mean "any".
type Preferences struct {
	CookingTime string `json:"cooking_time,omitempty" validate:"omitempty,oneof=15 30 60"`
	Difficulty  string `json:"difficulty,omitempty" validate:"omitempty,oneof=簡單 中等 困難"`
	Cuisine     string `json:"cuisine,omitempty" validate:"omitempty,oneof=中式 西式 日式 韓式"`
}

func (p Preferences) IsZero() bool {
	return p.CookingTime == "" && p.Difficulty == "" && p.Cuisine == ""
}
