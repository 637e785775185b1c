package product

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/ocop-products/app/db"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

var _ ProductRepo = (*PostgresProductRepo)(nil)

// ProductRepo is the catalog store. Single-row lookups and mutations return
// types.ErrNotFound when the id does not exist.
type ProductRepo interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*types.Product, error)
	// ListProducts returns the matching page and the total match count.
	// A zero filter.Limit returns every match.
	ListProducts(ctx context.Context, filter types.ProductFilter) ([]types.Product, int64, error)
	CreateProduct(ctx context.Context, p types.CreateProductParams) (*types.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, p types.UpdateProductParams) (*types.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

const productColumns = `id, name, COALESCE(category, ''), COALESCE(description, ''),
	price, stock, rating, created_at, updated_at`

// sortColumns maps the client's sortBy values to columns.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"category":  "category",
	"price":     "price",
	"stock":     "stock",
	"rating":    "rating",
}

func scanProduct(row pgx.Row) (*types.Product, error) {
	var p types.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description,
		&p.Price, &p.Stock, &p.Rating, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

type PostgresProductRepo struct {
	logger *slog.Logger
	db     database.Querier
}

func NewPostgresProductRepo(db database.Querier, logger *slog.Logger) *PostgresProductRepo {
	return &PostgresProductRepo{
		logger: logger,
		db:     db,
	}
}

func startSpan(ctx context.Context, name, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", op),
		attribute.String("db.sql.table", "products"),
	)
	return otel.Tracer("ProductRepo").Start(ctx, name, trace.WithAttributes(attrs...))
}

func (r *PostgresProductRepo) GetProduct(ctx context.Context, id uuid.UUID) (*types.Product, error) {
	ctx, span := startSpan(ctx, "GetProduct", "SELECT", attribute.String("product.id", id.String()))
	defer span.End()

	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching product: %w", err)
	}
	return p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause builds the filter predicate and its positional args.
func whereClause(f types.ProductFilter) (string, []interface{}) {
	var where []string
	var args []interface{}
	if f.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(f.Search)+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		where = append(where, fmt.Sprintf("price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		where = append(where, fmt.Sprintf("price <= $%d", len(args)))
	}
	if f.InStock != nil {
		if *f.InStock {
			where = append(where, "stock > 0")
		} else {
			where = append(where, "stock = 0")
		}
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func orderClause(f types.ProductFilter) string {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "ASC") {
		dir = "ASC"
	}
	// id breaks ties so pages stay stable
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
}

func (r *PostgresProductRepo) ListProducts(ctx context.Context, filter types.ProductFilter) ([]types.Product, int64, error) {
	ctx, span := startSpan(ctx, "ListProducts", "SELECT",
		attribute.Int("page", filter.Page), attribute.Int("limit", filter.Limit))
	defer span.End()

	whereSQL, args := whereClause(filter)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+whereSQL, args...).Scan(&total); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB count failed")
		return nil, 0, fmt.Errorf("database error counting products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + whereSQL + orderClause(filter)
	pageArgs := append([]interface{}{}, args...)
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		pageArgs = append(pageArgs, filter.Limit, (page-1)*filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	}

	rows, err := r.db.Query(ctx, query, pageArgs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, 0, fmt.Errorf("database error listing products: %w", err)
	}
	defer rows.Close()

	products := []types.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			span.RecordError(err)
			return nil, 0, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, 0, fmt.Errorf("iterating product rows: %w", err)
	}

	span.SetAttributes(attribute.Int64("result.total", total))
	return products, total, nil
}

func (r *PostgresProductRepo) CreateProduct(ctx context.Context, p types.CreateProductParams) (*types.Product, error) {
	ctx, span := startSpan(ctx, "CreateProduct", "INSERT")
	defer span.End()

	created, err := scanProduct(r.db.QueryRow(ctx, `
		INSERT INTO products (name, category, description, price, stock, rating)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		p.Name, p.Category, p.Description, p.Price, p.Stock, p.Rating))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert product", slog.String("name", p.Name), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error creating product: %w", err)
	}

	span.SetAttributes(attribute.String("product.id", created.ID.String()))
	return created, nil
}

func (r *PostgresProductRepo) UpdateProduct(ctx context.Context, id uuid.UUID, params types.UpdateProductParams) (*types.Product, error) {
	ctx, span := startSpan(ctx, "UpdateProduct", "UPDATE", attribute.String("product.id", id.String()))
	defer span.End()

	var setClauses []string
	var args []interface{}
	argID := 1
	set := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}
	if params.Name != nil {
		set("name", *params.Name)
	}
	if params.Category != nil {
		set("category", *params.Category)
	}
	if params.Description != nil {
		set("description", *params.Description)
	}
	if params.Price != nil {
		set("price", *params.Price)
	}
	if params.Stock != nil {
		set("stock", *params.Stock)
	}
	if params.Rating != nil {
		set("rating", *params.Rating)
	}

	if len(setClauses) == 0 {
		return r.GetProduct(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argID, productColumns)

	p, err := scanProduct(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return nil, fmt.Errorf("database error updating product: %w", err)
	}
	return p, nil
}

func (r *PostgresProductRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ctx, span := startSpan(ctx, "DeleteProduct", "DELETE", attribute.String("product.id", id.String()))
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB delete failed")
		return fmt.Errorf("database error deleting product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}
