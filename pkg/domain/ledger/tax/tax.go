// Package tax converts corporation-side ESS and daily goal amounts into the
// amount the member character received.
//
// The corporation journal records only the corporation's retained share of a
// payout split at the corporation tax rate t. The member received the rest:
//
//	character = corp / t * (100 - t)
package tax

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ConfigurationError reports an unusable corporation tax percent.
type ConfigurationError struct {
	Percent decimal.Decimal
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid corp_tax_percent %s: must be within (0, 100]", e.Percent.String())
}

func validate(percent decimal.Decimal) error {
	if !percent.IsPositive() || percent.GreaterThan(hundred) {
		return &ConfigurationError{Percent: percent}
	}
	return nil
}

// ToCharacterEquivalent re-expresses a corporation share at 100% payout
// equivalence for the member.
func ToCharacterEquivalent(corpAmount, corpTaxPercent decimal.Decimal) (decimal.Decimal, error) {
	if err := validate(corpTaxPercent); err != nil {
		return decimal.Zero, err
	}
	return corpAmount.Mul(hundred.Sub(corpTaxPercent)).Div(corpTaxPercent), nil
}

// ToCorporationShare is the inverse of ToCharacterEquivalent.
func ToCorporationShare(characterAmount, corpTaxPercent decimal.Decimal) (decimal.Decimal, error) {
	if err := validate(corpTaxPercent); err != nil {
		return decimal.Zero, err
	}
	if corpTaxPercent.Equal(hundred) {
		return decimal.Zero, &ConfigurationError{Percent: corpTaxPercent}
	}
	return characterAmount.Mul(corpTaxPercent).Div(hundred.Sub(corpTaxPercent)), nil
}

// CorporationShare marks an amount read from a corporation journal that has
// not been converted yet. Only this type is accepted by Converter.Convert, so
// a converted amount cannot be converted twice.
type CorporationShare struct {
	Amount decimal.Decimal
}

type Converter struct {
	percent decimal.Decimal
}

// NewConverter validates percent once, at startup.
func NewConverter(percent decimal.Decimal) (*Converter, error) {
	if err := validate(percent); err != nil {
		return nil, err
	}
	return &Converter{percent: percent}, nil
}

func (c *Converter) Percent() decimal.Decimal {
	return c.percent
}

func (c *Converter) Convert(share CorporationShare) (decimal.Decimal, error) {
	return ToCharacterEquivalent(share.Amount, c.percent)
}
