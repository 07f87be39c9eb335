// Package catalog holds customer-side helpers over the product listing.
package catalog

import (
	"strings"

	"merchant-desk/internal/domain"
)

// FilterByName keeps products whose name contains query, ignoring case.
// An empty or blank query keeps everything. Order is preserved.
func FilterByName(products []*domain.Product, query string) []*domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return products
	}

	out := make([]*domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}

// GroupByCategory buckets products by category, keeping input order inside each bucket
func GroupByCategory(products []*domain.Product) map[string][]*domain.Product {
	groups := make(map[string][]*domain.Product)
	for _, p := range products {
		key := p.CategoryID.String()
		groups[key] = append(groups[key], p)
	}
	return groups
}
