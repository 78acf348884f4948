package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Pauloph98/giocakes/internal/catalog/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database drivers. Postgres is the production backend, sqlite
// serves local development and tests (":memory:").
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Repository struct {
	db     *sql.DB
	driver string
}

func NewRepository(driver, dsn string) (*Repository, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverPostgres {
		db.SetMaxOpenConns(100)
		db.SetMaxIdleConns(10)
	} else {
		// A second sqlite connection to ":memory:" would see a fresh empty
		// database, so keep the pool at one connection.
		db.SetMaxOpenConns(1)
	}

	return &Repository{db: db, driver: driver}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	var (
		driver database.Driver
		err    error
	)
	switch r.driver {
	case DriverPostgres:
		driver, err = migratepg.WithInstance(r.db, &migratepg.Config{
			MigrationsTable: "catalog_schema_migrations",
		})
	case DriverSQLite:
		driver, err = migratesqlite.WithInstance(r.db, &migratesqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		r.driver,
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// productColumns is shared by every product query. The sqlite driver returns
// integers for booleans, so active is normalized to an int in SQL.
const productColumns = `
	p.id, p.name, p.description, p.price, p.stock, p.category_id,
	c.name, p.image_url, CASE WHEN p.active THEN 1 ELSE 0 END,
	p.created_at, p.updated_at
`

func scanProduct(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Product, error) {
	p := &domain.Product{}
	var categoryName sql.NullString
	var active int

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.CategoryID,
		&categoryName,
		&p.ImageURL,
		&active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.CategoryName = categoryName.String
	p.Active = active != 0
	return p, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

func (r *Repository) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	var (
		conds = []string{"p.active = TRUE"}
		args  []interface{}
	)

	addCond := func(expr string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if filter.CategoryID > 0 {
		addCond("p.category_id = $%d", filter.CategoryID)
	}
	if filter.MaxPrice > 0 {
		addCond("p.price <= $%d", filter.MaxPrice)
	}
	if filter.InStockOnly {
		conds = append(conds, "p.stock > 0")
	}
	if filter.Search != "" {
		addCond("LOWER(p.name) LIKE '%%' || LOWER($%d) || '%%'", filter.Search)
	}

	query := `
		SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY p.id
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

// UpdateStock applies a single-statement stock mutation so each mode is atomic
// with respect to the product row. The remove mode rejects, never clamps.
func (r *Repository) UpdateStock(ctx context.Context, id int64, quantity int, op domain.StockOperation) (*domain.Product, error) {
	var (
		result sql.Result
		err    error
	)

	switch op {
	case domain.StockAdd:
		result, err = r.db.ExecContext(ctx,
			`UPDATE products SET stock = stock + $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
			quantity, id)
	case domain.StockRemove:
		result, err = r.db.ExecContext(ctx,
			`UPDATE products SET stock = stock - $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND stock >= $1`,
			quantity, id)
	case domain.StockSet:
		result, err = r.db.ExecContext(ctx,
			`UPDATE products SET stock = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
			quantity, id)
	default:
		return nil, fmt.Errorf("unknown stock operation %q", op)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		// Either the product does not exist or a remove exceeded the current
		// stock. Re-read to tell the two apart.
		if _, getErr := r.GetProduct(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInsufficientStock
	}

	return r.GetProduct(ctx, id)
}

func (r *Repository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		c := &domain.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return categories, nil
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	c := &domain.Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return c, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}
