package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mtlprog/slaola/internal/domain"
	"github.com/mtlprog/slaola/internal/repository"
	"github.com/shopspring/decimal"
)

var maxDurationHours = decimal.NewFromInt(domain.MaxDurationHours)

// Validator handles policy validation before persistence.
type Validator struct {
	policyRepo *repository.PolicyRepository
}

// NewValidator creates a new Validator.
func NewValidator(policyRepo *repository.PolicyRepository) *Validator {
	return &Validator{
		policyRepo: policyRepo,
	}
}

// ValidateDuration checks that an optional duration is within [0, MaxDurationHours].
func ValidateDuration(hours decimal.NullDecimal) error {
	if !hours.Valid {
		return nil
	}
	if hours.Decimal.IsNegative() {
		return fmt.Errorf("%w: %s", domain.ErrNegativeDuration, hours.Decimal)
	}
	if hours.Decimal.GreaterThan(maxDurationHours) {
		return fmt.Errorf("%w: %s > %d hours", domain.ErrDurationTooLong, hours.Decimal, domain.MaxDurationHours)
	}
	return nil
}

// validateStoredPrecision rejects durations the policies table would round.
func validateStoredPrecision(hours decimal.NullDecimal) error {
	if !hours.Valid {
		return nil
	}
	if !hours.Decimal.Equal(hours.Decimal.Truncate(domain.DurationPlaces)) {
		return fmt.Errorf("%w: %s has more than %d", domain.ErrDurationTooPrecise, hours.Decimal, domain.DurationPlaces)
	}
	return nil
}

// ValidatePolicy checks the shape of a policy: project, products, durations
// and calendar. Calendar fields must be all blank or all valid.
func (v *Validator) ValidatePolicy(policy *domain.Policy) error {
	if strings.TrimSpace(policy.ProjectID) == "" {
		return domain.ErrProjectRequired
	}

	if len(policy.Products) == 0 {
		return fmt.Errorf("%w: policy %q", domain.ErrNoProducts, policy.Name)
	}

	if err := ValidateDuration(policy.SLAHours); err != nil {
		return fmt.Errorf("sla: %w", err)
	}
	if err := ValidateDuration(policy.OLAHours); err != nil {
		return fmt.Errorf("ola: %w", err)
	}
	if err := validateStoredPrecision(policy.SLAHours); err != nil {
		return fmt.Errorf("sla: %w", err)
	}
	if err := validateStoredPrecision(policy.OLAHours); err != nil {
		return fmt.Errorf("ola: %w", err)
	}

	if !policy.HasCalendarFields() {
		return nil
	}
	cal, err := policy.Calendar()
	if err != nil {
		return err
	}
	if cal == nil {
		return fmt.Errorf("%w: business hours start, end and days must be set together", domain.ErrInvalidCalendar)
	}

	return nil
}

// CheckProductsAvailable verifies that no other policy of the project already
// lists one of the products.
func (v *Validator) CheckProductsAvailable(ctx context.Context, projectID string, products []string) error {
	for _, product := range products {
		existing, err := v.policyRepo.FindPolicy(ctx, projectID, product)
		if errors.Is(err, domain.ErrPolicyNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("look up product %q: %w", product, err)
		}
		return fmt.Errorf("%w: %q is listed by policy %s", domain.ErrDuplicatePolicy, product, existing.ID)
	}
	return nil
}

// NormalizeProducts trims product names and drops blanks and duplicates,
// preserving order.
func NormalizeProducts(products []string) []string {
	seen := make(map[string]bool, len(products))
	out := make([]string, 0, len(products))
	for _, p := range products {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
