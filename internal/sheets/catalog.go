package sheets

import (
	"context"
	"fmt"

	"github.com/babyregistry/registry/internal/domain"
)

// DefaultCatalogRange covers the API tab including its header row
const DefaultCatalogRange = "API!A:L"

// Catalog reads the registry item list from the sheet
type Catalog struct {
	client *Client
	a1     string
}

// NewCatalog creates a catalog reader over an A1 range whose first row is a header
func NewCatalog(client *Client, a1 string) *Catalog {
	if a1 == "" {
		a1 = DefaultCatalogRange
	}
	return &Catalog{client: client, a1: a1}
}

// ListItems returns every catalog row with claimer emails masked
func (c *Catalog) ListItems(ctx context.Context) ([]domain.CatalogItem, error) {
	vr, err := c.client.ReadRange(ctx, c.a1)
	if err != nil {
		return nil, &domain.FetchError{Store: domain.SourceSheet, Err: err}
	}
	if len(vr.Values) == 0 {
		return nil, &domain.FetchError{Store: domain.SourceSheet, Err: fmt.Errorf("no values returned for %s", c.a1)}
	}

	items := make([]domain.CatalogItem, 0, len(vr.Values)-1)
	for _, row := range vr.Values[1:] {
		product := cell(row, 1)
		id := cell(row, 0)
		if id == "" {
			id = domain.GenerateItemID(product)
		}
		if id == "" {
			continue
		}

		items = append(items, domain.CatalogItem{
			ID:           id,
			Product:      product,
			ProductZH:    cell(row, 2),
			Category:     cell(row, 3),
			Subcategory:  cell(row, 4),
			Price:        cell(row, 5),
			ImageURL:     cell(row, 6),
			URL:          cell(row, 7),
			ClaimedBy:    cell(row, colClaimer),
			ClaimerEmail: domain.MaskEmail(cell(row, colEmail)),
		})
	}
	return items, nil
}
