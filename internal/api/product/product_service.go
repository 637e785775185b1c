package product

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ocop-products/internal/api"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var _ ProductService = (*ProductServiceImpl)(nil)

type ProductService interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*types.Product, error)
	ListProducts(ctx context.Context, filter types.ProductFilter) (*types.ProductList, error)
	// AllProducts returns the unpaginated catalog, oldest first.
	AllProducts(ctx context.Context) ([]types.Product, error)
	CreateProduct(ctx context.Context, params types.CreateProductParams) (*types.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, params types.UpdateProductParams) (*types.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type ProductServiceImpl struct {
	logger *slog.Logger
	repo   ProductRepo
}

func NewProductService(repo ProductRepo, logger *slog.Logger) *ProductServiceImpl {
	return &ProductServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ProductServiceImpl) GetProduct(ctx context.Context, id uuid.UUID) (*types.Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "GetProduct", trace.WithAttributes(
		attribute.String("product.id", id.String()),
	))
	defer span.End()

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch product")
		return nil, fmt.Errorf("error fetching product: %w", err)
	}
	return p, nil
}

func (s *ProductServiceImpl) ListProducts(ctx context.Context, filter types.ProductFilter) (*types.ProductList, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "ListProducts")
	defer span.End()

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	products, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list products")
		return nil, fmt.Errorf("error listing products: %w", err)
	}
	span.SetAttributes(attribute.Int64("result.total", total))
	return &types.ProductList{
		Products:   products,
		Pagination: types.NewPagination(total, filter.Page, filter.Limit),
	}, nil
}

func (s *ProductServiceImpl) AllProducts(ctx context.Context) ([]types.Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "AllProducts")
	defer span.End()

	products, _, err := s.repo.ListProducts(ctx, types.ProductFilter{SortBy: "createdAt", SortOrder: "ASC"})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load products")
		return nil, fmt.Errorf("error loading products: %w", err)
	}
	return products, nil
}

func (s *ProductServiceImpl) CreateProduct(ctx context.Context, params types.CreateProductParams) (*types.Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "CreateProduct")
	defer span.End()

	l := s.logger.With(slog.String("method", "CreateProduct"))

	if err := api.Validate(params); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		return nil, err
	}

	p, err := s.repo.CreateProduct(ctx, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create product", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create product")
		return nil, fmt.Errorf("error creating product: %w", err)
	}

	l.InfoContext(ctx, "Product created", slog.String("productID", p.ID.String()), slog.String("name", p.Name))
	span.SetStatus(codes.Ok, "Product created")
	return p, nil
}

func (s *ProductServiceImpl) UpdateProduct(ctx context.Context, id uuid.UUID, params types.UpdateProductParams) (*types.Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "UpdateProduct", trace.WithAttributes(
		attribute.String("product.id", id.String()),
	))
	defer span.End()

	if err := api.Validate(params); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		return nil, err
	}

	p, err := s.repo.UpdateProduct(ctx, id, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update product")
		return nil, fmt.Errorf("error updating product: %w", err)
	}

	s.logger.InfoContext(ctx, "Product updated", slog.String("productID", id.String()))
	return p, nil
}

func (s *ProductServiceImpl) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "DeleteProduct", trace.WithAttributes(
		attribute.String("product.id", id.String()),
	))
	defer span.End()

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete product")
		return fmt.Errorf("error deleting product: %w", err)
	}

	s.logger.InfoContext(ctx, "Product deleted", slog.String("productID", id.String()))
	return nil
}
