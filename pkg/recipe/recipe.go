// Package recipe defines the extracted recipe entity and its semantic
// validation rules. The entity's shape is the contract shared with the
// LLM's constrained output schema.
package recipe

// SchemaVersion tags serialized recipes so stored artifacts can be
// migrated if the shape changes.
const SchemaVersion = "1.0"

// Recipe is the decoded domain entity for one extracted recipe.
type Recipe struct {
	SchemaVersion string `json:"schemaVersion,omitempty"`

	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	SourceURL   string `json:"sourceUrl,omitempty" validate:"omitempty,url"`

	Servings         string `json:"servings,omitempty"`
	PrepTimeMinutes  int    `json:"prepTimeMinutes,omitempty" validate:"gte=0"`
	CookTimeMinutes  int    `json:"cookTimeMinutes,omitempty" validate:"gte=0"`
	TotalTimeMinutes int    `json:"totalTimeMinutes,omitempty" validate:"gte=0"`

	Cuisine  []string `json:"cuisine,omitempty"`
	Keywords []string `json:"keywords,omitempty"`

	Ingredients  []Ingredient  `json:"ingredients" validate:"required,min=1,dive"`
	Instructions []Instruction `json:"instructions" validate:"required,min=1,dive"`

	Equipment []string `json:"equipment,omitempty"`
	Notes     []string `json:"notes,omitempty"`

	// Storage holds guidance on keeping leftovers (fridge/freezer life).
	Storage string `json:"storage,omitempty"`
}

// Ingredient is one ingredient line.
// Quantity is a pointer because "to taste" ingredients have none.
type Ingredient struct {
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Name     string   `json:"name" validate:"required"`
	Note     string   `json:"note,omitempty"`
}

// Instruction is one ordered preparation step.
type Instruction struct {
	Step int    `json:"step" validate:"gte=1"`
	Text string `json:"text" validate:"required"`
}
