package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"marketplace/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// pricePattern accepts up to ten whole digits and two decimal places, never a
// sign. The bound matches the DECIMAL(12,2) price columns.
var pricePattern = regexp.MustCompile(`^\d{1,10}(\.\d{1,2})?$`)

var validate *validator.Validate

func init() {
	validate = validator.New()
	mustRegister("price", func(fl validator.FieldLevel) bool {
		return pricePattern.MatchString(fl.Field().String())
	})
	mustRegister("category", func(fl validator.FieldLevel) bool {
		return domain.IsCategory(fl.Field().String())
	})
	mustRegister("condition", func(fl validator.FieldLevel) bool {
		return domain.IsCondition(fl.Field().String())
	})
	mustRegister("return_policy", func(fl validator.FieldLevel) bool {
		return domain.IsReturnPolicy(fl.Field().String())
	})
	mustRegister("visibility", func(fl validator.FieldLevel) bool {
		return domain.Visibility(fl.Field().String()).Valid()
	})
	mustRegister("priority", func(fl validator.FieldLevel) bool {
		return domain.Priority(fl.Field().String()).Valid()
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Rules per product field. Optional fields accept the empty string.
var (
	ruleName          = fmt.Sprintf("required,max=%d", domain.MaxNameLength)
	ruleDescription   = fmt.Sprintf("required,max=%d", domain.MaxDescriptionLength)
	rulePrice         = "required,price"
	ruleOriginalPrice = "omitempty,price"
	ruleCategory      = "required,category"
	ruleCondition     = "omitempty,condition"
	ruleBrand         = fmt.Sprintf("omitempty,max=%d", domain.MaxBrandLength)
	ruleReturnPolicy  = "omitempty,return_policy"
	ruleTags          = fmt.Sprintf("max=%d,dive,required,max=%d", domain.MaxTags, domain.MaxTagLength)
	ruleThumbnail     = "required,max=500"
	ruleImages        = fmt.Sprintf("max=%d,dive,required,max=500", domain.MaxReferenceImages)
	ruleEmail         = "omitempty,email,max=255"
	rulePhone         = "omitempty,max=30"
	ruleCountry       = fmt.Sprintf("required,max=%d", domain.MaxCountryLength)
	ruleState         = fmt.Sprintf("required,max=%d", domain.MaxStateLength)
	ruleCity          = fmt.Sprintf("omitempty,max=%d", domain.MaxCityLength)
	ruleVisibility    = "omitempty,visibility"
	ruleNote          = fmt.Sprintf("max=%d", domain.MaxNoteLength)
	rulePriority      = "required,priority"
	ruleReviewText    = fmt.Sprintf("max=%d", domain.MaxReviewTextLength)
	ruleReplyText     = fmt.Sprintf("required,max=%d", domain.MaxReplyTextLength)
)

// checker collects field failures so a request reports all of them at once
type checker struct {
	errs domain.ValidationError
}

func (c *checker) check(field string, value interface{}, rule string) bool {
	err := validate.Var(value, rule)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		c.errs.Add(field, errorMessage(fieldErrs[0]))
	} else {
		c.errs.Add(field, "Invalid value")
	}
	return false
}

func (c *checker) err() error {
	return c.errs.OrNil()
}

func errorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "max":
		if e.Kind().String() == "slice" {
			return "At most " + e.Param() + " entries are allowed"
		}
		return "Must be at most " + e.Param() + " characters"
	case "price":
		return "Must be a non-negative amount below 10000000000 with at most two decimals"
	case "category", "condition", "return_policy", "visibility", "priority":
		return "Unknown " + strings.ReplaceAll(e.Tag(), "_", " ")
	default:
		return "Invalid value"
	}
}

// parsePrice assumes the string already passed the price rule
func parsePrice(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// validateProductInput checks a complete listing submitted for creation
func validateProductInput(in domain.ProductInput) error {
	c := &checker{}
	c.check("name", strings.TrimSpace(in.Name), ruleName)
	c.check("description", strings.TrimSpace(in.Description), ruleDescription)
	c.check("price", in.Price, rulePrice)
	c.check("original_price", in.OriginalPrice, ruleOriginalPrice)
	c.check("category", in.Category, ruleCategory)
	c.check("condition", in.Condition, ruleCondition)
	c.check("brand", in.Brand, ruleBrand)
	c.check("return_policy", in.ReturnPolicy, ruleReturnPolicy)
	c.check("tags", trimTags(in.Tags), ruleTags)
	c.check("thumbnail_url", in.ThumbnailURL, ruleThumbnail)
	c.check("reference_images", in.ReferenceImages, ruleImages)
	c.check("contact_email", in.ContactEmail, ruleEmail)
	c.check("contact_phone", in.ContactPhone, rulePhone)
	c.check("country", strings.TrimSpace(in.Country), ruleCountry)
	c.check("state", strings.TrimSpace(in.State), ruleState)
	c.check("city", in.City, ruleCity)
	c.check("visibility", in.Visibility, ruleVisibility)
	return c.err()
}

// validateProductPatch re-validates every supplied field and converts the
// patch into typed changes. Required fields cannot be cleared.
func validateProductPatch(p domain.ProductPatch) (domain.ProductChanges, error) {
	c := &checker{}
	changes := domain.ProductChanges{}

	text := func(field string, value *string, rule string, dst **string) {
		if value == nil {
			return
		}
		v := strings.TrimSpace(*value)
		if c.check(field, v, rule) {
			*dst = &v
		}
	}

	text("name", p.Name, ruleName, &changes.Name)
	text("description", p.Description, ruleDescription, &changes.Description)
	text("category", p.Category, ruleCategory, &changes.Category)
	text("condition", p.Condition, ruleCondition, &changes.Condition)
	text("brand", p.Brand, ruleBrand, &changes.Brand)
	text("return_policy", p.ReturnPolicy, ruleReturnPolicy, &changes.ReturnPolicy)
	text("thumbnail_url", p.ThumbnailURL, ruleThumbnail, &changes.ThumbnailURL)
	text("contact_email", p.ContactEmail, ruleEmail, &changes.ContactEmail)
	text("contact_phone", p.ContactPhone, rulePhone, &changes.ContactPhone)
	text("country", p.Country, ruleCountry, &changes.Country)
	text("state", p.State, ruleState, &changes.State)
	text("city", p.City, ruleCity, &changes.City)

	if p.Price != nil && c.check("price", *p.Price, rulePrice) {
		price := parsePrice(*p.Price)
		changes.Price = &price
	}
	if p.OriginalPrice != nil && c.check("original_price", *p.OriginalPrice, ruleOriginalPrice) {
		original := decimal.NullDecimal{}
		if *p.OriginalPrice != "" {
			original = decimal.NewNullDecimal(parsePrice(*p.OriginalPrice))
		}
		changes.OriginalPrice = &original
	}
	if p.Tags != nil && c.check("tags", trimTags(*p.Tags), ruleTags) {
		tags := normalizeTags(*p.Tags)
		changes.Tags = &tags
	}
	if p.ReferenceImages != nil && c.check("reference_images", *p.ReferenceImages, ruleImages) {
		images := append([]string{}, *p.ReferenceImages...)
		changes.ReferenceImages = &images
	}
	if p.Visibility != nil && c.check("visibility", *p.Visibility, "required,visibility") {
		v := domain.Visibility(*p.Visibility)
		changes.Visibility = &v
	}

	if err := c.err(); err != nil {
		return domain.ProductChanges{}, err
	}
	return changes, nil
}

// validateFavouritePatch checks buyer metadata
func validateFavouritePatch(p domain.FavouritePatch) (domain.FavouriteChanges, error) {
	c := &checker{}
	changes := domain.FavouriteChanges{NotifyPriceDrop: p.NotifyPriceDrop}

	if p.Note != nil && c.check("note", *p.Note, ruleNote) {
		note := *p.Note
		changes.Note = &note
	}
	if p.Priority != nil && c.check("priority", *p.Priority, rulePriority) {
		priority := domain.Priority(*p.Priority)
		changes.Priority = &priority
	}

	if err := c.err(); err != nil {
		return domain.FavouriteChanges{}, err
	}
	return changes, nil
}

// trimTags returns a trimmed copy of tags, keeping blanks so they fail
// the required rule
func trimTags(tags []string) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = strings.TrimSpace(t)
	}
	return out
}

// normalizeTags trims each tag and drops duplicates, keeping first occurrence
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
