package pipeline

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/timmy/ghostline/internal/domain"
)

// publishable is the subset of an item the commerce platform requires.
type publishable struct {
	Title    string          `validate:"required"`
	Category domain.Category `validate:"category"`
	Price    float64         `validate:"gt=0"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return domain.Category(fl.Field().String()).Valid()
	})
	return v
}

// validateItem returns a readable message for the first problems found, or "".
func validateItem(v *validator.Validate, item *domain.WorkItem) string {
	err := v.Struct(publishable{
		Title:    strings.TrimSpace(item.Title),
		Category: item.Category,
		Price:    item.Price,
	})
	if err == nil {
		return ""
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Title":
			msgs = append(msgs, "title is required")
		case "Category":
			msgs = append(msgs, fmt.Sprintf("category %q is not supported", item.Category))
		case "Price":
			msgs = append(msgs, fmt.Sprintf("price must be greater than 0, got %v", item.Price))
		default:
			msgs = append(msgs, fe.Error())
		}
	}
	return strings.Join(msgs, "; ")
}
