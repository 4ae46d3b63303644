package shipping

import (
	"github.com/shopspring/decimal"

	dErrors "bellgas/pkg/domain-errors"
)

const (
	// maxWeightKg bounds a single consignment. A full checkout tops out well
	// below it.
	maxWeightKg = 10000
	// maxWeightScale is the finest weight accepted, in decimal places.
	maxWeightScale = 3
)

var (
	baseCost         = decimal.RequireFromString("15.00")
	costPerKg        = decimal.RequireFromString("2.50")
	minimumCost      = decimal.RequireFromString("10.00")
	defaultSurcharge = decimal.RequireFromString("15.00")
	maxWeight        = decimal.NewFromInt(maxWeightKg)

	zoneSurcharge = map[Zone]decimal.Decimal{
		ZoneMetro:    decimal.RequireFromString("5.00"),
		ZoneRegional: decimal.RequireFromString("12.00"),
		ZoneRemote:   decimal.RequireFromString("25.00"),
	}
)

// DeliveryWindow is an inclusive estimate in business days.
type DeliveryWindow struct {
	MinDays int `json:"min_days"`
	MaxDays int `json:"max_days"`
}

var (
	defaultWindow = DeliveryWindow{MinDays: 3, MaxDays: 5}

	zoneWindow = map[Zone]DeliveryWindow{
		ZoneMetro:    {MinDays: 1, MaxDays: 2},
		ZoneRegional: {MinDays: 2, MaxDays: 4},
		ZoneRemote:   {MinDays: 5, MaxDays: 10},
	}
)

// ShippingQuote is the result of a single calculation. Values are exact;
// round only for display.
type ShippingQuote struct {
	Postcode  string
	TotalCost decimal.Decimal
	Zone      Zone
	Delivery  DeliveryWindow
}

// DistanceCost is the zone surcharge added on top of the base and weight cost.
func DistanceCost(zone Zone) decimal.Decimal {
	if c, ok := zoneSurcharge[zone]; ok {
		return c
	}
	return defaultSurcharge
}

// CalculateShippingCost prices a parcel:
//
//	max(15.00 + 2.50*weight + DistanceCost(zone), 10.00)
func CalculateShippingCost(postcode string, totalWeightKg decimal.Decimal) (decimal.Decimal, error) {
	if !ValidatePostcode(postcode) {
		return decimal.Zero, ErrInvalidPostcode
	}
	totalWeightKg, err := checkWeight(totalWeightKg)
	if err != nil {
		return decimal.Zero, err
	}
	cost := baseCost.
		Add(costPerKg.Mul(totalWeightKg)).
		Add(DistanceCost(ClassifyZone(postcode)))
	return decimal.Max(cost, minimumCost), nil
}

// checkWeight bounds the weight's exponent before any arithmetic. Decimal
// addition rescales both operands to the smaller exponent, so an input such
// as 1e50000000 or 0e-2000000000 would otherwise expand into a coefficient
// with that many digits.
func checkWeight(w decimal.Decimal) (decimal.Decimal, error) {
	switch {
	case w.IsNegative():
		return decimal.Zero, ErrNegativeWeight
	case w.Exponent() < -maxWeightScale:
		return decimal.Zero, ErrWeightPrecision
	case w.IsZero():
		return decimal.Zero, nil
	case w.Exponent() > 4 || w.GreaterThan(maxWeight):
		return decimal.Zero, ErrWeightTooHeavy
	}
	return w, nil
}

// EstimatedDeliveryDays returns the delivery window for a postcode's zone.
func EstimatedDeliveryDays(postcode string) DeliveryWindow {
	if w, ok := zoneWindow[ClassifyZone(postcode)]; ok {
		return w
	}
	return defaultWindow
}

// Quote composes cost, zone and delivery window.
func Quote(postcode string, totalWeightKg decimal.Decimal) (*ShippingQuote, error) {
	cost, err := CalculateShippingCost(postcode, totalWeightKg)
	if err != nil {
		return nil, err
	}
	return &ShippingQuote{
		Postcode:  postcode,
		TotalCost: cost,
		Zone:      ClassifyZone(postcode),
		Delivery:  EstimatedDeliveryDays(postcode),
	}, nil
}

var (
	ErrInvalidPostcode = dErrors.New(dErrors.CodeInvalidInput, "postcode must be exactly four digits")
	ErrNegativeWeight  = dErrors.New(dErrors.CodeInvalidInput, "weight must not be negative")
	ErrWeightTooHeavy  = dErrors.New(dErrors.CodeInvalidInput, "weight must not exceed 10000 kg")
	ErrWeightPrecision = dErrors.New(dErrors.CodeInvalidInput, "weight must have at most 3 decimal places")
)
