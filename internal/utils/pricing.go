package utils

import (
	"fmt"

	"github.com/shopspring/decimal"

	"mediarent-backend/internal/domain"
)

// MoneyScale is the number of decimal places the money columns store
const MoneyScale = 2

var (
	hundred = decimal.NewFromInt(100)
)

// PriceBreakdown provides the intermediate values of a rental price
type PriceBreakdown struct {
	ItemsTotal      decimal.Decimal
	DiscountAmount  decimal.Decimal
	AdditionalCosts decimal.Decimal
	Total           decimal.Decimal
}

// LineTotal is quantity × daily rate × days
func LineTotal(quantity int, dailyRate decimal.Decimal, days int) decimal.Decimal {
	return dailyRate.Mul(decimal.NewFromInt(int64(quantity))).Mul(decimal.NewFromInt(int64(days)))
}

// CalculateTotalPrice sums the line totals, applies the discount percentage
// and adds the additional costs. Inputs are not clamped; a discount above 100
// yields a negative subtotal, so callers validate first.
func CalculateTotalPrice(items []domain.RentalItem, discountPercent, additionalCosts decimal.Decimal) decimal.Decimal {
	return CalculatePriceBreakdown(items, discountPercent, additionalCosts).Total
}

// CalculatePriceBreakdown is CalculateTotalPrice with the intermediate steps kept
func CalculatePriceBreakdown(items []domain.RentalItem, discountPercent, additionalCosts decimal.Decimal) PriceBreakdown {
	itemsTotal := decimal.Zero
	for _, it := range items {
		itemsTotal = itemsTotal.Add(LineTotal(it.Quantity, it.DailyRate, it.Days))
	}

	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(hundred))
	withDiscount := itemsTotal.Mul(factor)

	return PriceBreakdown{
		ItemsTotal:      itemsTotal,
		DiscountAmount:  itemsTotal.Sub(withDiscount),
		AdditionalCosts: additionalCosts,
		Total:           withDiscount.Add(additionalCosts),
	}
}

// ValidatePricing rejects a discount outside [0, 100] and negative additional costs
func ValidatePricing(discountPercent, additionalCosts decimal.Decimal) error {
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return domain.Validationf("discount percent must be between 0 and 100, got %s", discountPercent)
	}
	if additionalCosts.IsNegative() {
		return domain.Validationf("additional costs cannot be negative, got %s", additionalCosts)
	}
	if err := ValidateScale("discount percent", discountPercent); err != nil {
		return err
	}
	return ValidateScale("additional costs", additionalCosts)
}

// ValidateLineItem checks quantity, days and the daily rate of one line
func ValidateLineItem(quantity, days int, dailyRate decimal.Decimal) error {
	if quantity < 1 {
		return domain.Validationf("quantity must be at least 1, got %d", quantity)
	}
	if days < 1 {
		return domain.Validationf("days must be at least 1, got %d", days)
	}
	if dailyRate.IsNegative() {
		return domain.Validationf("daily rate cannot be negative, got %s", dailyRate)
	}
	return ValidateScale("daily rate", dailyRate)
}

// ValidateDeposit rejects negative deposits
func ValidateDeposit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: deposit cannot be negative, got %s", domain.ErrValidation, amount)
	}
	return ValidateScale("deposit", amount)
}

// ValidateScale rejects amounts with more decimal places than MoneyScale.
// Trailing zeros do not count, so 12.340 passes.
func ValidateScale(name string, d decimal.Decimal) error {
	if !d.Equal(d.Round(MoneyScale)) {
		return domain.Validationf("%s allows at most %d decimal places, got %s", name, MoneyScale, d)
	}
	return nil
}
