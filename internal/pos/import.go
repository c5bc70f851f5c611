package pos

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/tillsync/internal/catalog"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

type ImportResult struct {
	CategoriesAdded int
	ProductsAdded   int
	ProductsUpdated int
	Skipped         []catalog.Skipped
}

// ImportCatalog adds the categories a menu file references and upserts its
// products by name. Items without a category land in the default category.
func (s *Service) ImportCatalog(ctx context.Context, r io.Reader) (ImportResult, error) {
	parsed, err := catalog.Parse(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("parse catalog: %w", err)
	}

	res := ImportResult{Skipped: parsed.Skipped}

	if len(parsed.Items) == 0 {
		return res, nil
	}

	wanted := make(map[string]record.Category)

	for _, item := range parsed.Items {
		cat := categoryFor(item)
		wanted[cat.ID] = cat
	}

	err = s.cols.Categories.Update(ctx, func(cats []record.Category) ([]record.Category, error) {
		for id, cat := range wanted {
			if _, ok := find(cats, id); ok {
				continue
			}

			cats = append(cats, cat)
			res.CategoriesAdded++
		}

		return cats, nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	err = s.cols.Products.Update(ctx, func(products []record.Product) ([]record.Product, error) {
		byName := make(map[string]int, len(products))
		for i, p := range products {
			byName[strings.ToLower(p.Name)] = i
		}

		for _, item := range parsed.Items {
			key := strings.ToLower(item.Name)

			if i, ok := byName[key]; ok {
				p := &products[i]
				p.Price = item.Price
				p.Active = item.Active
				p.CategoryID = categoryFor(item).ID
				p.SyncStatus = record.StatusPending
				res.ProductsUpdated++

				continue
			}

			products = append(products, record.Product{
				ID:         s.newID(),
				Name:       item.Name,
				CategoryID: categoryFor(item).ID,
				Price:      item.Price,
				Active:     item.Active,
				SyncStatus: record.StatusPending,
			})
			byName[key] = len(products) - 1
			res.ProductsAdded++
		}

		return products, nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.logger.Info("catalog imported",
		"charset", parsed.Charset,
		"categories_added", res.CategoriesAdded,
		"products_added", res.ProductsAdded,
		"products_updated", res.ProductsUpdated,
		"skipped", len(res.Skipped),
	)
	s.sync.RequestSync()

	return res, nil
}

func categoryFor(item catalog.Item) record.Category {
	if id := Slug(item.Category); id != "" {
		return record.Category{ID: id, Name: item.Category, SyncStatus: record.StatusPending}
	}

	return record.Category{
		ID:         record.UncategorizedID,
		Name:       "Uncategorized",
		IsDefault:  true,
		SyncStatus: record.StatusPending,
	}
}
