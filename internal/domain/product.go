package domain

import "time"

// OptionValue is one selectable value of a product option, e.g. size "XL".
// PriceAdjustment is added to the product base price when selected.
type OptionValue struct {
	Name            string  `json:"name"`
	PriceAdjustment float64 `json:"price_adjustment"`
	SoldOut         bool    `json:"sold_out"`
}

// OptionDefinition is a catalog-defined product option, e.g. "Size" with
// values S/M/L. Definitions are user-editable catalog data and may change
// after cart items referencing them were created.
type OptionDefinition struct {
	Name   string        `json:"name"`
	Values []OptionValue `json:"values"`
}

// Product represents a catalog product
type Product struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	BasePrice   float64            `json:"base_price"`
	ImageURL    string             `json:"image_url"`
	Options     []OptionDefinition `json:"options"`
	Stock       int                `json:"stock"`
	IsActive    bool               `json:"is_active"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// InStock reports whether the product can currently be purchased.
func (p *Product) InStock() bool {
	return p.IsActive && p.Stock > 0
}

// OptionValueFor returns the defined value for the given option name and
// value name, or nil when either is not (or no longer) defined.
func (p *Product) OptionValueFor(optionName, valueName string) *OptionValue {
	for i := range p.Options {
		if p.Options[i].Name != optionName {
			continue
		}
		for j := range p.Options[i].Values {
			if p.Options[i].Values[j].Name == valueName {
				return &p.Options[i].Values[j]
			}
		}
	}
	return nil
}
