package product

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/ocop-products/internal/api"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

const notFoundMsg = "Product not found"

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ListProducts(w http.ResponseWriter, r *http.Request)
	GetProduct(w http.ResponseWriter, r *http.Request)
	CreateProduct(w http.ResponseWriter, r *http.Request)
	UpdateProduct(w http.ResponseWriter, r *http.Request)
	DeleteProduct(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	productService ProductService
	logger         *slog.Logger
}

func NewHandlerImpl(productService ProductService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		productService: productService,
		logger:         logger,
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid product ID format")
		return uuid.Nil, false
	}
	return id, true
}

func queryFloat(r *http.Request, key string) *float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func queryBool(r *http.Request, key string) *bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// ListProducts godoc
// @Summary      List products
// @Description  Public catalog listing with optional filters, sorting and pagination.
// @Tags         Products
// @Produce      json
// @Param        search    query string  false "Substring of name or description"
// @Param        category  query string  false "Exact category"
// @Param        minPrice  query number  false "Minimum price"
// @Param        maxPrice  query number  false "Maximum price"
// @Param        inStock   query boolean false "Only products with (true) or without (false) stock"
// @Param        sortBy    query string  false "createdAt, updatedAt, name, category, price, stock or rating"
// @Param        sortOrder query string  false "ASC or DESC" default(DESC)
// @Param        page      query int     false "Page number" default(1)
// @Param        limit     query int     false "Page size" default(10)
// @Success      200 {object} types.ProductList
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /products [get]
func (h *HandlerImpl) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := types.ProductFilter{
		Search:    strings.TrimSpace(q.Get("search")),
		Category:  strings.TrimSpace(q.Get("category")),
		MinPrice:  queryFloat(r, "minPrice"),
		MaxPrice:  queryFloat(r, "maxPrice"),
		InStock:   queryBool(r, "inStock"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      api.QueryInt(r, "page", 1),
		Limit:     api.QueryInt(r, "limit", defaultPageSize),
	}

	list, err := h.productService.ListProducts(r.Context(), filter)
	if err != nil {
		api.ServiceErrorResponse(w, r, err, notFoundMsg)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, list)
}

// GetProduct godoc
// @Summary      Get product
// @Tags         Products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} types.Product
// @Failure      400 {object} types.Response "Invalid ID"
// @Failure      404 {object} types.Response "Product Not Found"
// @Router       /products/{id} [get]
func (h *HandlerImpl) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		api.ServiceErrorResponse(w, r, err, notFoundMsg)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, p)
}

// CreateProduct godoc
// @Summary      Create product
// @Description  Admin or Manager.
// @Tags         Products
// @Accept       json
// @Produce      json
// @Param        product body types.CreateProductParams true "New product"
// @Success      201 {object} types.Product
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Forbidden"
// @Security     BearerAuth
// @Router       /products [post]
func (h *HandlerImpl) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var params types.CreateProductParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode product", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	params.Name = strings.TrimSpace(params.Name)
	params.Category = strings.TrimSpace(params.Category)

	p, err := h.productService.CreateProduct(r.Context(), params)
	if err != nil {
		api.ServiceErrorResponse(w, r, err, notFoundMsg)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, p)
}

// UpdateProduct godoc
// @Summary      Update product
// @Description  Admin or Manager. Only the fields present in the body change.
// @Tags         Products
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "Product ID"
// @Param        product body types.UpdateProductParams true "Fields to change"
// @Success      200 {object} types.Product
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      404 {object} types.Response "Product Not Found"
// @Security     BearerAuth
// @Router       /products/{id} [put]
func (h *HandlerImpl) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var params types.UpdateProductParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.productService.UpdateProduct(r.Context(), id, params)
	if err != nil {
		api.ServiceErrorResponse(w, r, err, notFoundMsg)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, p)
}

// DeleteProduct godoc
// @Summary      Delete product
// @Description  Admin only.
// @Tags         Products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} types.Response
// @Failure      404 {object} types.Response "Product Not Found"
// @Security     BearerAuth
// @Router       /products/{id} [delete]
func (h *HandlerImpl) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
		api.ServiceErrorResponse(w, r, err, notFoundMsg)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Deleted successfully"})
}
