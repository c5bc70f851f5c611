package pos

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

type ProductParams struct {
	Name       string
	CategoryID string
	Price      decimal.Decimal
}

// Slug turns a category name into its id: "Hot Drinks" becomes "hot-drinks".
func Slug(name string) string {
	var b strings.Builder

	dash := false

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

func (s *Service) AddCategory(ctx context.Context, name string) (record.Category, error) {
	cat := record.Category{
		ID:         Slug(name),
		Name:       strings.TrimSpace(name),
		SyncStatus: record.StatusPending,
	}

	if err := s.check(cat); err != nil {
		return record.Category{}, err
	}

	err := s.cols.Categories.Update(ctx, func(cats []record.Category) ([]record.Category, error) {
		if _, ok := find(cats, cat.ID); ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCategory, cat.ID)
		}

		return append(cats, cat), nil
	})
	if err != nil {
		return record.Category{}, err
	}

	s.changed("add category", cat.ID)

	return cat, nil
}

func (s *Service) Categories(ctx context.Context) ([]record.Category, error) {
	cats, err := s.cols.Categories.Load(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(cats, func(a, b record.Category) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return cats, nil
}

func (s *Service) AddProduct(ctx context.Context, params ProductParams) (record.Product, error) {
	p := record.Product{
		ID:         s.newID(),
		Name:       strings.TrimSpace(params.Name),
		CategoryID: params.CategoryID,
		Price:      params.Price,
		Active:     true,
		SyncStatus: record.StatusPending,
	}

	if err := s.checkProduct(p); err != nil {
		return record.Product{}, err
	}

	err := s.cols.Products.Update(ctx, func(products []record.Product) ([]record.Product, error) {
		return append(products, p), nil
	})
	if err != nil {
		return record.Product{}, err
	}

	s.changed("add product", p.ID)

	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, params ProductParams) (record.Product, error) {
	return s.editProduct(ctx, "update product", id, func(p record.Product) (record.Product, error) {
		p.Name = strings.TrimSpace(params.Name)
		p.CategoryID = params.CategoryID
		p.Price = params.Price

		return p, s.checkProduct(p)
	})
}

func (s *Service) ToggleProductActive(ctx context.Context, id string) (record.Product, error) {
	return s.editProduct(ctx, "toggle product", id, func(p record.Product) (record.Product, error) {
		p.Active = !p.Active
		return p, nil
	})
}

func (s *Service) editProduct(
	ctx context.Context,
	action, id string,
	edit func(record.Product) (record.Product, error),
) (record.Product, error) {
	var out record.Product

	err := s.cols.Products.Update(ctx, func(products []record.Product) ([]record.Product, error) {
		p, ok := find(products, id)
		if !ok {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}

		p, err := edit(p)
		if err != nil {
			return nil, err
		}

		p.SyncStatus = record.StatusPending
		out = p

		return upsert(products, p), nil
	})
	if err != nil {
		return record.Product{}, err
	}

	s.changed(action, id)

	return out, nil
}

func (s *Service) checkProduct(p record.Product) error {
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: negative price", ErrInvalid)
	}

	return s.check(p)
}

// Products lists the menu, most sold first. An empty categoryID lists every
// category.
func (s *Service) Products(ctx context.Context, categoryID string) ([]record.Product, error) {
	products, err := s.cols.Products.Load(ctx)
	if err != nil {
		return nil, err
	}

	if categoryID != "" {
		products = slices.DeleteFunc(products, func(p record.Product) bool {
			return p.CategoryID != categoryID
		})
	}

	slices.SortStableFunc(products, func(a, b record.Product) int {
		if c := cmp.Compare(b.OrderFrequency, a.OrderFrequency); c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	return products, nil
}
