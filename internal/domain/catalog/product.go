package catalog

import (
	"strings"
	"time"

	"github.com/cosmetica/backend/internal/domain/shared"
)

// Baseline seed values for entries created by the importer
const (
	DefaultRating  = 4.6
	MinSeedReviews = 20
	MaxSeedReviews = 250
)

// Listing holds the commercial and content fields of a catalog entry.
// An import overwrites exactly these fields on a matched entry.
type Listing struct {
	Barcode       string
	Name          string
	Brand         string
	Price         int64 // minor units
	OriginalPrice *int64
	Discount      *int
	Image         string
	Images        []string
	IsNew         bool
	IsBestSeller  bool
	InStock       bool
	StockQuantity int
	CategorySlug  string
	Description   string
}

// Product is a storefront catalog entry.
// Slug, rating and review count are assigned once at creation.
type Product struct {
	shared.BaseEntity
	Slug          string   `validate:"required,max=255"`
	Barcode       *string  `validate:"omitempty,max=64"`
	Name          string   `validate:"required,max=255"`
	Brand         string   `validate:"max=120"`
	Price         int64    `validate:"gt=0"`
	OriginalPrice *int64   `validate:"omitempty,gt=0"`
	Discount      *int     `validate:"omitempty,min=0,max=100"`
	Image         string   `validate:"max=2048"`
	Images        []string `validate:"max=7"`
	Rating        float64  `validate:"min=0,max=5"`
	ReviewsCount  int      `validate:"min=0"`
	IsNew         bool
	IsBestSeller  bool
	InStock       bool
	StockQuantity int    `validate:"min=0"`
	CategorySlug  string `validate:"required,max=64"`
	Description   string
	DeletedAt     *time.Time
}

// NewProduct creates a fresh catalog entry from a listing.
func NewProduct(slug string, listing Listing, reviews int, now time.Time) (*Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, shared.NewDomainError("INVALID_SLUG", "Product slug cannot be empty")
	}
	if reviews < 0 {
		return nil, shared.NewDomainError("INVALID_REVIEWS", "Review count cannot be negative")
	}

	p := &Product{
		BaseEntity:   shared.NewBaseEntity(now),
		Slug:         slug,
		Rating:       DefaultRating,
		ReviewsCount: reviews,
	}
	if err := p.apply(listing); err != nil {
		return nil, err
	}
	return p, nil
}

// Overwrite replaces the listing fields of an existing entry, keeping its
// id, slug, rating and review count.
func (p *Product) Overwrite(listing Listing, now time.Time) error {
	if err := p.apply(listing); err != nil {
		return err
	}
	p.Touch(now)
	return nil
}

// IsActive reports whether the entry has not been soft-deleted.
func (p *Product) IsActive() bool {
	return p.DeletedAt == nil
}

// BarcodeValue returns the trimmed barcode or "" when unset.
func (p *Product) BarcodeValue() string {
	if p.Barcode == nil {
		return ""
	}
	return strings.TrimSpace(*p.Barcode)
}

func (p *Product) apply(l Listing) error {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if l.Price <= 0 {
		return shared.NewDomainError("INVALID_PRICE", "Product price must be positive")
	}
	if l.Discount != nil && (*l.Discount < 0 || *l.Discount > 100) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount must be between 0 and 100")
	}

	p.Name = name
	p.Brand = l.Brand
	p.Price = l.Price
	p.OriginalPrice = l.OriginalPrice
	p.Discount = l.Discount
	p.Image = l.Image
	p.Images = append([]string(nil), l.Images...)
	p.IsNew = l.IsNew
	p.IsBestSeller = l.IsBestSeller
	p.InStock = l.InStock
	p.StockQuantity = l.StockQuantity
	p.CategorySlug = l.CategorySlug
	p.Description = l.Description

	if b := strings.TrimSpace(l.Barcode); b != "" {
		p.Barcode = &b
	} else {
		p.Barcode = nil
	}
	return nil
}
