package reports

import (
	"context"
	"fmt"
)

// Selection is the effective category and product sets of a report request.
type Selection struct {
	Categories []Category
	Products   []Product
}

func (s Selection) ProductIds() []int {
	ids := make([]int, 0, len(s.Products))
	for _, p := range s.Products {
		ids = append(ids, p.ID)
	}
	return ids
}

// ResolveCategories returns every category when nothing is selected, the
// selected categories with all their descendants when includeSubcategories is
// set, or exactly the selection otherwise.
func ResolveCategories(ctx context.Context, ledger Ledger, selected []int, includeSubcategories bool) ([]Category, error) {
	all, err := ledger.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if len(selected) == 0 {
		if len(all) == 0 {
			return nil, ErrNoCategories
		}
		return all, nil
	}

	byId := make(map[int]Category, len(all))
	children := make(map[int][]int)
	for _, c := range all {
		byId[c.ID] = c
		if c.ParentId != 0 {
			children[c.ParentId] = append(children[c.ParentId], c.ID)
		}
	}

	seen := make(map[int]bool)
	var out []Category
	var visit func(id int)
	visit = func(id int) {
		if seen[id] {
			return
		}
		c, ok := byId[id]
		if !ok {
			return
		}
		seen[id] = true
		out = append(out, c)
		if includeSubcategories {
			for _, child := range children[id] {
				visit(child)
			}
		}
	}
	for _, id := range selected {
		visit(id)
	}
	if len(out) == 0 {
		return nil, ErrNoCategories
	}
	return out, nil
}

// ResolveProducts returns the explicit product subset when given, otherwise
// the active products of the categories.
func ResolveProducts(ctx context.Context, ledger Ledger, categories []Category, productIds []int) ([]Product, error) {
	var (
		products []Product
		err      error
	)
	if len(productIds) > 0 {
		products, err = ledger.ProductsByIds(ctx, productIds)
	} else {
		ids := make([]int, 0, len(categories))
		for _, c := range categories {
			ids = append(ids, c.ID)
		}
		products, err = ledger.ActiveProductsInCategories(ctx, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNoProducts
	}
	return products, nil
}

// ResolveSelection runs both resolvers. A non-zero onlyCategoryId narrows the
// selection to that one category (drill-down into a single bucket). With an
// explicit product subset the bucket is taken from the products, which may lie
// outside the selected categories.
func ResolveSelection(ctx context.Context, ledger Ledger, filter FilterSpec, onlyCategoryId int) (*Selection, error) {
	categories, err := ResolveCategories(ctx, ledger, filter.CategoryIds, filter.IncludeSubcategories)
	if err != nil {
		return nil, err
	}
	if onlyCategoryId == 0 {
		products, err := ResolveProducts(ctx, ledger, categories, filter.ProductIds)
		if err != nil {
			return nil, err
		}
		return &Selection{Categories: categories, Products: products}, nil
	}

	if len(filter.ProductIds) > 0 {
		products, err := ResolveProducts(ctx, ledger, nil, filter.ProductIds)
		if err != nil {
			return nil, err
		}
		var inCategory []Product
		for _, p := range products {
			if p.CategoryId == onlyCategoryId {
				inCategory = append(inCategory, p)
			}
		}
		if len(inCategory) == 0 {
			return nil, ErrNoProducts
		}
		bucket := Category{ID: onlyCategoryId, Name: inCategory[0].CategoryName}
		return &Selection{Categories: []Category{bucket}, Products: inCategory}, nil
	}

	var narrowed []Category
	for _, c := range categories {
		if c.ID == onlyCategoryId {
			narrowed = append(narrowed, c)
		}
	}
	if len(narrowed) == 0 {
		return nil, ErrNoCategories
	}
	products, err := ResolveProducts(ctx, ledger, narrowed, nil)
	if err != nil {
		return nil, err
	}
	return &Selection{Categories: narrowed, Products: products}, nil
}
