package models

// Ingredient is one food item recognized from a photo or edited by the user.
// Quantity is free text; the empty string means it was never set.
type Ingredient struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
}
