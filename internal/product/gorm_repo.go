package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// productRow is the gorm mapping of the products table.
type productRow struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Description *string         `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock       int             `gorm:"not null"`
	CreatedAt   time.Time       `gorm:"index"`
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (productRow) TableName() string { return "products" }

func (r productRow) toProduct() Product {
	return Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// GormRepo implements Repository with gorm, for the SQLite and MySQL
// deployments. Soft deletes rely on gorm.DeletedAt.
type GormRepo struct{ db *gorm.DB }

func NewGormRepo(db *gorm.DB) *GormRepo { return &GormRepo{db: db} }

// AutoMigrate creates or updates the products table.
func (r *GormRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&productRow{})
}

func (r *GormRepo) Create(ctx context.Context, p *Product) error {
	row := productRow{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	p.CreatedAt, p.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *GormRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	var row productRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p := row.toProduct()
	return &p, nil
}

func (r *GormRepo) List(ctx context.Context, q ListQuery) ([]Product, int64, error) {
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []productRow
	err := r.filtered(ctx, q).
		Order(clause.OrderByColumn{Column: clause.Column{Name: q.OrderField}, Desc: q.Desc()}).
		Order("id").
		Limit(q.PerPage).
		Offset(q.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toProduct())
	}
	return out, total, nil
}

func (r *GormRepo) Update(ctx context.Context, p *Product) error {
	res := r.db.WithContext(ctx).Model(&productRow{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"stock":       p.Stock,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	cur, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt, p.UpdatedAt = cur.CreatedAt, cur.UpdatedAt
	return nil
}

func (r *GormRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&productRow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) filtered(ctx context.Context, q ListQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&productRow{})
	text := "TEXT"
	if r.db.Dialector.Name() == "mysql" {
		text = "CHAR"
	}
	for _, c := range q.Conditions {
		switch c.Op {
		case OpLike:
			tx = tx.Where(fmt.Sprintf("CAST(%s AS %s) LIKE ?", c.Field, text), c.Value)
		default:
			tx = tx.Where(fmt.Sprintf("CAST(%s AS %s) = ?", c.Field, text), c.Value)
		}
	}
	if q.Start != nil {
		tx = tx.Where(fmt.Sprintf("%s >= ?", q.DateField), *q.Start)
	}
	if q.End != nil {
		tx = tx.Where(fmt.Sprintf("%s <= ?", q.DateField), *q.End)
	}
	return tx
}
