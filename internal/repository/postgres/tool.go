package postgres

import (
	"context"
	"database/sql"
	"time"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/repository"
)

type toolRepository struct {
	db DBTX
}

func NewToolRepository(db DBTX) repository.ToolRepository {
	return &toolRepository{db: db}
}

const toolColumns = `t.id, t.name, t.category_id, COALESCE(c.name, ''), t.repo_cost, t.rent_price, t.late_fine_daily, t.image_ref, t.deleted_on`

func scanTool(row interface{ Scan(...any) error }, t *domain.Tool) error {
	var categoryID sql.NullInt32
	var categoryName string
	var deletedOn sql.NullTime
	if err := row.Scan(&t.ID, &t.Name, &categoryID, &categoryName, &t.RepoCost, &t.RentPrice, &t.LateFineDaily, &t.ImageRef, &deletedOn); err != nil {
		return err
	}
	if categoryID.Valid {
		t.Category = &domain.Category{ID: categoryID.Int32, Name: categoryName}
	}
	if deletedOn.Valid {
		d := deletedOn.Time
		t.DeletedOn = &d
	}
	return nil
}

func categoryID(t *domain.Tool) sql.NullInt32 {
	if t.Category == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: t.Category.ID, Valid: true}
}

func (r *toolRepository) Create(ctx context.Context, t *domain.Tool) error {
	query := `INSERT INTO tools (name, category_id, repo_cost, rent_price, late_fine_daily, image_ref, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	logger.DatabaseCall("INSERT", "tools", "name", t.Name)
	return r.db.QueryRowContext(ctx, query, t.Name, categoryID(t), t.RepoCost, t.RentPrice, t.LateFineDaily, t.ImageRef, time.Now()).Scan(&t.ID)
}

func (r *toolRepository) GetByID(ctx context.Context, id int32) (*domain.Tool, error) {
	t := &domain.Tool{}
	query := `SELECT ` + toolColumns + ` FROM tools t LEFT JOIN categories c ON c.id = t.category_id WHERE t.id = $1 AND t.deleted_on IS NULL`
	if err := scanTool(r.db.QueryRowContext(ctx, query, id), t); err != nil {
		return nil, notFound(err, "tool %d not found", id)
	}
	return t, nil
}

func (r *toolRepository) Update(ctx context.Context, t *domain.Tool) error {
	query := `UPDATE tools SET name=$1, category_id=$2, repo_cost=$3, rent_price=$4, late_fine_daily=$5, image_ref=$6 WHERE id=$7 AND deleted_on IS NULL`
	res, err := r.db.ExecContext(ctx, query, t.Name, categoryID(t), t.RepoCost, t.RentPrice, t.LateFineDaily, t.ImageRef, t.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "tool %d not found", t.ID)
}

func (r *toolRepository) Delete(ctx context.Context, id int32) error {
	query := `UPDATE tools SET deleted_on = $1 WHERE id = $2 AND deleted_on IS NULL`
	res, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "tool %d not found", id)
}

func (r *toolRepository) List(ctx context.Context) ([]domain.Tool, error) {
	query := `SELECT ` + toolColumns + ` FROM tools t LEFT JOIN categories c ON c.id = t.category_id WHERE t.deleted_on IS NULL ORDER BY t.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tools []domain.Tool
	for rows.Next() {
		var t domain.Tool
		if err := scanTool(rows, &t); err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, rows.Err()
}

type categoryRepository struct {
	db DBTX
}

func NewCategoryRepository(db DBTX) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	err := r.db.QueryRowContext(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	return uniqueViolation(err)
}

func (r *categoryRepository) GetByID(ctx context.Context, id int32) (*domain.Category, error) {
	c := &domain.Category{}
	if err := r.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name); err != nil {
		return nil, notFound(err, "category %d not found", id)
	}
	return c, nil
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	c := &domain.Category{}
	if err := r.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE LOWER(name) = LOWER($1)`, name).Scan(&c.ID, &c.Name); err != nil {
		return nil, notFound(err, "category %s not found", name)
	}
	return c, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
