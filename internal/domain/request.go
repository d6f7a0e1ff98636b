package domain

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Style selects the output format the reviewer is asked for.
type Style string

const (
	StyleStructured Style = "structured"
	StyleFreeform   Style = "freeform"
)

// ReviewType identifies a review template.
type ReviewType string

const (
	ReviewGeneral      ReviewType = "general"
	ReviewCode         ReviewType = "code"
	ReviewDesign       ReviewType = "design"
	ReviewArchitecture ReviewType = "architecture"
	ReviewSecurity     ReviewType = "security_audit"
	ReviewBrainstorm   ReviewType = "brainstorm_alternatives"
)

// ReviewTypes lists every accepted review type, in schema order.
var ReviewTypes = []ReviewType{
	ReviewGeneral,
	ReviewCode,
	ReviewDesign,
	ReviewArchitecture,
	ReviewSecurity,
	ReviewBrainstorm,
}

// Styles lists every accepted output style.
var Styles = []Style{StyleStructured, StyleFreeform}

// Time budget bounds in seconds (advisory only).
const (
	MinTimeBudgetSeconds = 30
	MaxTimeBudgetSeconds = 600
)

// ReviewRequest is a normalized "second opinion" request.
type ReviewRequest struct {
	Content           string     `json:"content"`
	Focus             []string   `json:"focus,omitempty"`
	Style             Style      `json:"style,omitempty"`
	TimeBudgetSeconds *int       `json:"time_budget_seconds,omitempty"`
	ReviewType        ReviewType `json:"review_type,omitempty"`
	TargetAgent       string     `json:"target_agent,omitempty"`
	TargetModel       string     `json:"target_model,omitempty"`
	ResourcePaths     []string   `json:"resource_paths,omitempty"`
}

// WithDefaults returns a copy with style and review type defaulted.
func (r ReviewRequest) WithDefaults() ReviewRequest {
	out := r
	if out.Style == "" {
		out.Style = StyleStructured
	}
	if out.ReviewType == "" {
		out.ReviewType = ReviewGeneral
	}
	out.Focus = slices.Clone(r.Focus)
	out.ResourcePaths = slices.Clone(r.ResourcePaths)
	if r.TimeBudgetSeconds != nil {
		v := *r.TimeBudgetSeconds
		out.TimeBudgetSeconds = &v
	}
	return out
}

// Validate checks field-level constraints. Agent membership is checked by the router.
func (r ReviewRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return &ValidationError{Field: "content", Message: "must be a non-empty string"}
	}
	for i, f := range r.Focus {
		if strings.TrimSpace(f) == "" {
			return &ValidationError{Field: "focus", Message: fmt.Sprintf("entry %d must be a non-empty string", i)}
		}
	}
	if r.Style != "" && !slices.Contains(Styles, r.Style) {
		return &ValidationError{Field: "style", Message: fmt.Sprintf("must be one of %v, got %q", Styles, r.Style)}
	}
	if r.TimeBudgetSeconds != nil {
		v := *r.TimeBudgetSeconds
		if v < MinTimeBudgetSeconds || v > MaxTimeBudgetSeconds {
			return &ValidationError{
				Field:   "time_budget_seconds",
				Message: fmt.Sprintf("must be between %d and %d, got %d", MinTimeBudgetSeconds, MaxTimeBudgetSeconds, v),
			}
		}
	}
	if r.ReviewType != "" && !slices.Contains(ReviewTypes, r.ReviewType) {
		return &ValidationError{Field: "review_type", Message: fmt.Sprintf("must be one of %v, got %q", ReviewTypes, r.ReviewType)}
	}
	for _, p := range r.ResourcePaths {
		if err := validateResourcePath(p); err != nil {
			return err
		}
	}
	return nil
}

func validateResourcePath(p string) error {
	if strings.TrimSpace(p) == "" {
		return &ValidationError{Field: "resource_paths", Message: "entries must be non-empty"}
	}
	if filepath.IsAbs(p) {
		return &ValidationError{Field: "resource_paths", Message: fmt.Sprintf("%q must be relative to the project root", p)}
	}
	clean := filepath.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return &ValidationError{Field: "resource_paths", Message: fmt.Sprintf("%q escapes the project root", p)}
	}
	return nil
}
