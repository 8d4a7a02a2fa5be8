package models

import (
	"github.com/cosmetica/backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// CatalogProductModel is the persistence model for catalog.Product
type CatalogProductModel struct {
	BaseModel
	Slug          string         `gorm:"type:varchar(255);not null;uniqueIndex"`
	Barcode       *string        `gorm:"type:varchar(64);index"`
	Name          string         `gorm:"type:varchar(255);not null;index"`
	Brand         string         `gorm:"type:varchar(120);not null"`
	Price         int64          `gorm:"not null"`
	OriginalPrice *int64         `gorm:"type:bigint"`
	Discount      *int           `gorm:"type:smallint"`
	Image         string         `gorm:"type:text;not null"`
	Images        []string       `gorm:"type:jsonb;serializer:json;not null"`
	Rating        float64        `gorm:"type:numeric(2,1);not null"`
	ReviewsCount  int            `gorm:"not null"`
	IsNew         bool           `gorm:"not null"`
	IsBestSeller  bool           `gorm:"not null"`
	InStock       bool           `gorm:"not null"`
	StockQuantity int            `gorm:"not null"`
	CategorySlug  string         `gorm:"type:varchar(64);not null;index"`
	Description   string         `gorm:"type:text;not null"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (CatalogProductModel) TableName() string {
	return "catalog_products"
}

// ToDomain converts the persistence model to a domain Product
func (m *CatalogProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseEntity:    m.BaseModel.ToDomain(),
		Slug:          m.Slug,
		Barcode:       m.Barcode,
		Name:          m.Name,
		Brand:         m.Brand,
		Price:         m.Price,
		OriginalPrice: m.OriginalPrice,
		Discount:      m.Discount,
		Image:         m.Image,
		Images:        m.Images,
		Rating:        m.Rating,
		ReviewsCount:  m.ReviewsCount,
		IsNew:         m.IsNew,
		IsBestSeller:  m.IsBestSeller,
		InStock:       m.InStock,
		StockQuantity: m.StockQuantity,
		CategorySlug:  m.CategorySlug,
		Description:   m.Description,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if m.DeletedAt.Valid {
		deletedAt := m.DeletedAt.Time
		p.DeletedAt = &deletedAt
	}
	return p
}

// FromDomain populates the persistence model from a domain Product
func (m *CatalogProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Slug = p.Slug
	m.Barcode = p.Barcode
	m.Name = p.Name
	m.Brand = p.Brand
	m.Price = p.Price
	m.OriginalPrice = p.OriginalPrice
	m.Discount = p.Discount
	m.Image = p.Image
	m.Images = p.Images
	if m.Images == nil {
		m.Images = []string{}
	}
	m.Rating = p.Rating
	m.ReviewsCount = p.ReviewsCount
	m.IsNew = p.IsNew
	m.IsBestSeller = p.IsBestSeller
	m.InStock = p.InStock
	m.StockQuantity = p.StockQuantity
	m.CategorySlug = p.CategorySlug
	m.Description = p.Description
	m.DeletedAt = gorm.DeletedAt{}
	if p.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *p.DeletedAt, Valid: true}
	}
}

// CatalogProductModelFromDomain creates a new persistence model from a domain Product
func CatalogProductModelFromDomain(p *catalog.Product) *CatalogProductModel {
	m := &CatalogProductModel{}
	m.FromDomain(p)
	return m
}
