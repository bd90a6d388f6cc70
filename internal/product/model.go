package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	// DeletedAt marks a soft-deleted product; it never leaves the store layer.
	DeletedAt *time.Time `json:"-"`
}

// Input carries the writable fields of a product, already validated.
type Input struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
}

func (in Input) apply(p *Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
}

// Page is one page of a product listing.
// swagger:model
type Page struct {
	Data []Product `json:"data"`
	Meta PageMeta  `json:"meta"`
}

// PageMeta describes the position of a Page within the full result.
// swagger:model
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	// From and To are 1-based positions of the first and last item, nil on an
	// empty page.
	From *int `json:"from"`
	To   *int `json:"to"`
}

func newPage(items []Product, total int64, q ListQuery) Page {
	if items == nil {
		items = []Product{}
	}
	meta := PageMeta{
		CurrentPage: q.Page,
		PerPage:     q.PerPage,
		Total:       total,
		LastPage:    1,
	}
	if total > 0 {
		meta.LastPage = int((total + int64(q.PerPage) - 1) / int64(q.PerPage))
	}
	if len(items) > 0 {
		from := (q.Page-1)*q.PerPage + 1
		to := from + len(items) - 1
		meta.From, meta.To = &from, &to
	}
	return Page{Data: items, Meta: meta}
}
