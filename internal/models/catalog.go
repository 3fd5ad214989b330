package models

import (
	"time"
)

type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	ImgURL      string
	Date        *time.Time
	Categories  []Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CategoryIDs returns the ids of the product's categories.
func (p *Product) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(p.Categories))
	for _, c := range p.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}
