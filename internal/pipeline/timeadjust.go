package pipeline

import (
	"math"
	"time"
)

const daysPerYear = 365.25

// AdjustForTime compounds a sale price forward from the sale date to
// the valuation date at the given annual appreciation rate. Sales on or
// after the valuation date, or with no usable dates, pass through
// unchanged. Time adjustment happens before any PSF is computed so the
// estimators only ever see market-conditions-adjusted prices.
func AdjustForTime(price float64, saleDate, valuationDate time.Time, annualRate float64) float64 {
	if annualRate == 0 || saleDate.IsZero() || valuationDate.IsZero() {
		return price
	}
	if !saleDate.Before(valuationDate) {
		return price
	}
	years := valuationDate.Sub(saleDate).Hours() / 24 / daysPerYear
	return price * math.Pow(1+annualRate, years)
}
