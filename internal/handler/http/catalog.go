package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/TiaaDeals/internal/service"
	"github.com/utafrali/TiaaDeals/pkg/httputil"
	"github.com/utafrali/TiaaDeals/pkg/pagination"
)

// CatalogHandler handles the public product and category endpoints.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// ListProducts handles GET /api/products?page=&per_page=&category_id=&featured=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := service.ProductQuery{Page: pagination.FromRequest(r)}

	if v := r.URL.Query().Get("category_id"); v != "" {
		id, ok := httputil.ParseUUID(w, "category", v)
		if !ok {
			return
		}
		s := id.String()
		q.CategoryID = &s
	}
	if v := r.URL.Query().Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteErrorCode(w, http.StatusBadRequest, "INVALID_INPUT", "featured must be true or false")
			return
		}
		q.Featured = &featured
	}

	products, total, err := h.service.ListProducts(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", map[string]any{
		"products":   products,
		"pagination": q.Page.Meta(total),
	})
}

// SearchProducts handles GET /api/products/search?query=
func (h *CatalogHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		query = r.URL.Query().Get("q")
	}

	products, err := h.service.Search(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", map[string]any{"products": products})
}

// GetProduct handles GET /api/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, "product", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", map[string]any{"product": product})
}

// ListCategories handles GET /api/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", map[string]any{"categories": categories})
}

// GetCategory handles GET /api/categories/{id}
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, "category", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	category, err := h.service.GetCategory(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", map[string]any{"category": category})
}

// CategoryProducts handles GET /api/categories/{id}/products?page=&per_page=
func (h *CatalogHandler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, "category", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	page := pagination.FromRequest(r)
	products, total, err := h.service.CategoryProducts(r.Context(), id.String(), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", map[string]any{
		"products":   products,
		"pagination": page.Meta(total),
	})
}
