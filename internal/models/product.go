package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// MaxNameLength is the maximum number of characters in a product name.
	MaxNameLength = 100
	// MaxDescriptionLength is the maximum number of characters in a product description.
	MaxDescriptionLength = 2000
)

// Product represents a product in the catalog. The ID and both timestamps
// are assigned by the storage layer; CreatedAt is immutable and UpdatedAt is
// refreshed on every successful mutation.
type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name" validate:"required,max=100"`
	Description string             `json:"description" bson:"description" validate:"required,max=2000"`
	Price       float64            `json:"price" bson:"price" validate:"gte=0"`
	Category    string             `json:"category" bson:"category" validate:"required"`
	ImageURL    string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	InStock     bool               `json:"inStock" bson:"inStock"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

var validate = validator.New()

// Check re-validates the full record against the schema constraints the
// storage layer enforces. It returns one message per violated constraint,
// or nil when the record is valid.
func (p *Product) Check() []string {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, schemaMessage(e.StructField(), e.Tag()))
	}
	return msgs
}

// schemaMessage mirrors the storage schema's per-constraint messages.
func schemaMessage(field, tag string) string {
	switch field {
	case "Name":
		if tag == "max" {
			return "Product name cannot exceed 100 characters"
		}
		return "Product name is required"
	case "Description":
		if tag == "max" {
			return "Description cannot exceed 2000 characters"
		}
		return "Product description is required"
	case "Price":
		return "Price cannot be negative"
	case "Category":
		return "Product category is required"
	}
	return "Product is invalid"
}

// ProductInput is the write payload for create and update requests. Pointer
// fields distinguish an absent field from its zero value, which is what lets
// updates replace only the supplied fields.
type ProductInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	ImageURL    *string  `json:"imageUrl"`
	InStock     *bool    `json:"inStock"`
}

// Violations checks the payload and returns every violation found, in a
// fixed order: required fields, type mismatches reported by the decoder,
// price range, then length limits. typeBad names the JSON fields the
// decoder rejected; those are reported as type violations rather than as
// missing. An empty result means the payload is acceptable. The same checks
// apply to create and update requests.
func (in *ProductInput) Violations(typeBad []string) []string {
	var errs []string
	bad := make(map[string]bool, len(typeBad))
	for _, f := range typeBad {
		bad[f] = true
	}

	if !bad["name"] && (in.Name == nil || *in.Name == "") {
		errs = append(errs, "Product name is required")
	}
	if !bad["description"] && (in.Description == nil || *in.Description == "") {
		errs = append(errs, "Product description is required")
	}
	if !bad["price"] && in.Price == nil {
		errs = append(errs, "Product price is required")
	}
	if !bad["category"] && (in.Category == nil || *in.Category == "") {
		errs = append(errs, "Product category is required")
	}

	for _, f := range typeBad {
		if msg := TypeViolation(f); msg != "" {
			errs = append(errs, msg)
		}
	}

	if in.Price != nil && *in.Price < 0 {
		errs = append(errs, "Product price cannot be negative")
	}

	if in.Name != nil && utf8.RuneCountInString(*in.Name) > MaxNameLength {
		errs = append(errs, "Product name cannot exceed 100 characters")
	}
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > MaxDescriptionLength {
		errs = append(errs, "Product description cannot exceed 2000 characters")
	}

	return errs
}

// TypeViolation maps a JSON field that failed to decode to its violation
// message. Unknown fields yield an empty string and should be ignored.
func TypeViolation(field string) string {
	switch field {
	case "name":
		return "Product name must be a string"
	case "description":
		return "Product description must be a string"
	case "price":
		return "Product price must be a number"
	case "category":
		return "Product category must be a string"
	case "imageUrl":
		return "Product imageUrl must be a string"
	case "inStock":
		return "Product inStock must be a boolean"
	}
	return ""
}

// Apply merges the supplied fields onto p. String fields are trimmed the way
// the storage schema trims them. Fields left nil in the input are untouched.
func (in *ProductInput) Apply(p *Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
}
