// Package pricing computes authoritative server-side prices for cart
// lines and cart aggregates. Client-supplied prices are never trusted.
package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
)

// UnitPrice resolves a line's unit price from the product base price plus
// any selected-option price adjustments. Selected option names or value
// names with no matching definition are skipped, not an error: options
// are user-editable catalog data that may have changed after the cart
// item was created.
func UnitPrice(baseAmount float64, selectedOptions map[string]string, optionDefs []domain.OptionDefinition) float64 {
	price := baseAmount
	for name, valueName := range selectedOptions {
		if value := lookupValue(optionDefs, name, valueName); value != nil {
			price += value.PriceAdjustment
		}
	}
	return price
}

func lookupValue(defs []domain.OptionDefinition, optionName, valueName string) *domain.OptionValue {
	for i := range defs {
		if defs[i].Name != optionName {
			continue
		}
		for j := range defs[i].Values {
			if defs[i].Values[j].Name == valueName {
				return &defs[i].Values[j]
			}
		}
	}
	return nil
}

// MergeKey builds the stable identity of a cart line: the product id
// paired with a canonical serialization of the selected options. Two
// additions with the same key merge by summing quantity instead of
// creating a duplicate row.
func MergeKey(productID string, selectedOptions map[string]string) string {
	if len(selectedOptions) == 0 {
		return productID
	}

	names := make([]string, 0, len(selectedOptions))
	for name := range selectedOptions {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(productID)
	for _, name := range names {
		fmt.Fprintf(&b, "|%s=%s", name, selectedOptions[name])
	}
	return b.String()
}

// PricedItem is the view of a cart line the totals computation needs.
// Resolved is false when the backing product could not be fetched; such
// lines contribute quantity but not price.
type PricedItem struct {
	Quantity  int
	UnitPrice float64
	Resolved  bool
}

// Totals computes cart aggregates. TotalItems sums quantities over all
// lines. TotalPrice sums unit*quantity over resolved lines only,
// excluding unresolved lines rather than pricing them at zero.
// Incomplete is set when any line was excluded so callers can tell an
// exact total from a partial one.
func Totals(items []PricedItem) domain.CartTotals {
	var totals domain.CartTotals
	for _, item := range items {
		totals.TotalItems += item.Quantity
		if !item.Resolved {
			totals.Incomplete = true
			continue
		}
		totals.TotalPrice += item.UnitPrice * float64(item.Quantity)
	}
	return totals
}

// LineTitle renders the descriptive title of a cart line from the product
// name and the selected options, in canonical option order.
func LineTitle(productName string, selectedOptions map[string]string) string {
	if len(selectedOptions) == 0 {
		return productName
	}

	names := make([]string, 0, len(selectedOptions))
	for name := range selectedOptions {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, selectedOptions[name]))
	}
	return fmt.Sprintf("%s (%s)", productName, strings.Join(parts, ", "))
}
