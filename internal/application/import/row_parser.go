package importapp

import (
	"fmt"
	"strings"

	"github.com/cosmetica/backend/internal/domain/catalog"
	sheetimport "github.com/cosmetica/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
)

// Defaults applied to rows that leave optional columns blank
const (
	DefaultBrand            = "Cosmetica"
	DefaultPlaceholderImage = "https://placehold.co/600x600/png?text=Cosmetica"
	MaxAdditionalImages     = 7
)

// Header candidates in priority order. Turkish and English synonyms seen in
// supplier sheets.
var (
	nameHeaders          = []string{"ürün adı", "urun adi", "ürün ismi", "product name", "name", "isim", "title"}
	brandHeaders         = []string{"marka", "brand", "üretici", "manufacturer"}
	priceHeaders         = []string{"satış fiyatı", "satis fiyati", "fiyat", "price", "sale price"}
	originalPriceHeaders = []string{"eski fiyat", "liste fiyatı", "piyasa fiyatı", "original price", "old price", "compare at price"}
	categoryHeaders      = []string{"kategori", "category"}
	descriptionHeaders   = []string{"açıklama", "aciklama", "description", "ürün açıklaması"}
	stockQtyHeaders      = []string{"stok adedi", "stok miktarı", "stok", "stock quantity", "stock", "quantity", "adet"}
	inStockHeaders       = []string{"stok durumu", "stokta", "in stock", "mevcut"}
	isNewHeaders         = []string{"yeni ürün", "yeni", "is new", "new"}
	bestSellerHeaders    = []string{"çok satan", "cok satan", "best seller", "bestseller"}
	imageHeaders         = []string{"ana görsel", "görsel", "gorsel", "resim", "image", "image url", "görsel url", "fotoğraf", "photo"}
	barcodeHeaders       = []string{"barkod", "barcode", "ean", "gtin"}

	additionalImagePatterns = []string{"ek görsel %d", "ek gorsel %d", "görsel %d", "resim %d", "image %d", "additional image %d"}

	inStockMarkers = []string{"var", "yes", "evet"}
)

// ExcelProduct is one parsed input row
type ExcelProduct struct {
	Row           int
	Name          string
	Brand         string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Category      string
	Description   string
	StockQty      int
	InStock       bool
	IsNew         bool
	IsBestSeller  bool
	Image         string
	Images        []string
	Barcode       string
}

// HasMatchableBarcode reports whether the barcode came from the sheet
func (p *ExcelProduct) HasMatchableBarcode() bool {
	return catalog.IsMatchableBarcode(p.Barcode)
}

// RowParser maps loosely-typed sheet rows onto ExcelProduct values
type RowParser struct {
	defaultBrand     string
	placeholderImage string
}

// NewRowParser creates a parser. Empty arguments fall back to the package defaults.
func NewRowParser(defaultBrand, placeholderImage string) *RowParser {
	if strings.TrimSpace(defaultBrand) == "" {
		defaultBrand = DefaultBrand
	}
	if strings.TrimSpace(placeholderImage) == "" {
		placeholderImage = DefaultPlaceholderImage
	}
	return &RowParser{
		defaultBrand:     defaultBrand,
		placeholderImage: placeholderImage,
	}
}

// ParseOutcome is the result of parsing a whole sheet
type ParseOutcome struct {
	Products []*ExcelProduct
	Skipped  int
	Errors   *sheetimport.ErrorCollection
}

// ParseRows parses every row. A bad row is recorded and never stops the loop.
func (p *RowParser) ParseRows(rows []*sheetimport.Row, maxErrors int) *ParseOutcome {
	out := &ParseOutcome{
		Products: make([]*ExcelProduct, 0, len(rows)),
		Errors:   sheetimport.NewErrorCollection(maxErrors),
	}
	for _, row := range rows {
		product, rowErr := p.ParseRow(row)
		switch {
		case rowErr != nil:
			out.Errors.Add(*rowErr)
		case product == nil:
			out.Skipped++
		default:
			out.Products = append(out.Products, product)
		}
	}
	return out
}

// ParseRow returns (nil, nil) for rows without a name, a RowError for rows
// that cannot be imported, and the product otherwise.
func (p *RowParser) ParseRow(row *sheetimport.Row) (product *ExcelProduct, rowErr *sheetimport.RowError) {
	var name string
	defer func() {
		if r := recover(); r != nil {
			product = nil
			e := sheetimport.NewRowError(row.Position, name, sheetimport.ErrCodeImportRowPanic, fmt.Sprint(r))
			rowErr = &e
		}
	}()

	name = row.PickString(nameHeaders...)
	if name == "" {
		return nil, nil
	}

	rawPrice, _ := row.Pick(priceHeaders...)
	price := sheetimport.ToNumber(rawPrice)
	if !price.IsPositive() {
		e := sheetimport.NewRowError(row.Position, name, sheetimport.ErrCodeImportInvalidPrice,
			fmt.Sprintf("price must be greater than zero (got %q)", sheetimport.CellString(rawPrice)))
		return nil, &e
	}

	product = &ExcelProduct{
		Row:         row.Position,
		Name:        name,
		Brand:       row.PickString(brandHeaders...),
		Price:       price,
		Category:    catalog.NormalizeCategory(row.PickString(categoryHeaders...)),
		Description: row.PickString(descriptionHeaders...),
		Barcode:     row.PickString(barcodeHeaders...),
	}
	if product.Brand == "" {
		product.Brand = p.defaultBrand
	}
	if product.Barcode == "" {
		product.Barcode = catalog.PlaceholderBarcode(row.Position)
	}

	if raw, ok := row.Pick(originalPriceHeaders...); ok {
		if op := sheetimport.ToNumber(raw); op.IsPositive() {
			product.OriginalPrice = &op
		}
	}

	if raw, ok := row.Pick(stockQtyHeaders...); ok {
		if qty := sheetimport.ToNumber(raw).IntPart(); qty > 0 {
			product.StockQty = int(qty)
		}
	}
	product.InStock = product.StockQty > 0 || hasInStockMarker(row)

	if raw, ok := row.Pick(isNewHeaders...); ok {
		product.IsNew = sheetimport.IsYes(raw)
	}
	if raw, ok := row.Pick(bestSellerHeaders...); ok {
		product.IsBestSeller = sheetimport.IsYes(raw)
	}

	product.Image = NormalizeImageURL(row.PickString(imageHeaders...))
	if product.Image == "" {
		product.Image = p.placeholderImage
	}
	product.Images = additionalImages(row)

	return product, nil
}

// NormalizeImageURL trims the value. Non-http values are kept as written.
func NormalizeImageURL(raw string) string {
	return strings.TrimSpace(raw)
}

func hasInStockMarker(row *sheetimport.Row) bool {
	raw, ok := row.Pick(inStockHeaders...)
	if !ok {
		return false
	}
	v := sheetimport.FoldHeader(sheetimport.CellString(raw))
	for _, m := range inStockMarkers {
		if strings.Contains(v, m) {
			return true
		}
	}
	return false
}

func additionalImages(row *sheetimport.Row) []string {
	images := make([]string, 0)
	candidates := make([]string, len(additionalImagePatterns))
	for n := 1; n <= MaxAdditionalImages; n++ {
		for i, pattern := range additionalImagePatterns {
			candidates[i] = fmt.Sprintf(pattern, n)
		}
		raw, ok := row.PickExact(candidates...)
		if !ok {
			continue
		}
		if url := NormalizeImageURL(sheetimport.CellString(raw)); url != "" {
			images = append(images, url)
		}
	}
	return images
}
