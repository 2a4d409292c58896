package recipe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes a single semantic defect in a recipe.
// Its message is fed back into the retry prompt verbatim, so it must
// name the specific field and defect, not a generic "invalid".
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validator checks decoded recipes against semantic completeness rules.
// Schema conformity is already enforced by the model's constrained
// output; this layer catches what the schema alone cannot (empty but
// present lists, whitespace-only strings, unordered steps).
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a recipe validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate returns nil for a semantically complete recipe, or a
// *ValidationError describing the first defect found.
func (v *Validator) Validate(r *Recipe) error {
	if r == nil {
		return &ValidationError{Field: "recipe", Message: "is missing"}
	}

	// Whitespace-only fields pass the struct tags, so check them first.
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Field: "title", Message: "is empty"}
	}
	if len(r.Ingredients) == 0 {
		return &ValidationError{Field: "ingredients", Message: "is empty, at least one ingredient is required"}
	}
	if len(r.Instructions) == 0 {
		return &ValidationError{Field: "instructions", Message: "is empty, at least one instruction step is required"}
	}
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("ingredients[%d].name", i),
				Message: "is empty",
			}
		}
	}
	for i, step := range r.Instructions {
		if strings.TrimSpace(step.Text) == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("instructions[%d].text", i),
				Message: "is empty",
			}
		}
	}

	if err := v.validate.Struct(r); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return &ValidationError{
				Field:   fieldPath(e),
				Message: formatFieldError(e),
			}
		}
		return &ValidationError{Field: "recipe", Message: err.Error()}
	}

	return nil
}

// Canonical renders the recipe to its canonical serialized form:
// stable, indented JSON. It is the rendering used when a failing
// recipe is echoed back to the model in a retry prompt.
func Canonical(r *Recipe) ([]byte, error) {
	if r.SchemaVersion == "" {
		r.SchemaVersion = SchemaVersion
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize recipe: %w", err)
	}
	return data, nil
}

// fieldPath strips the struct name prefix from the validator namespace
// so messages read "ingredients[0].name", not "Recipe.Ingredients[0].Name".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		ns = ns[idx+1:]
	}
	return strings.ToLower(ns[:1]) + ns[1:]
}

// formatFieldError creates a human-readable message for one rule failure.
func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", e.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
