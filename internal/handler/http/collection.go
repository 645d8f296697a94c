package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/TiaaDeals/internal/domain"
	"github.com/utafrali/TiaaDeals/internal/service"
	"github.com/utafrali/TiaaDeals/pkg/httputil"
	"github.com/utafrali/TiaaDeals/pkg/middleware"
)

// CollectionHandler serves one collection kind. The cart and the wishlist
// each get their own handler mounted under /api/cart and /api/wishlist.
type CollectionHandler struct {
	service *service.CollectionService
	kind    domain.Kind
	logger  *slog.Logger
}

// NewCollectionHandler creates a handler for the given collection kind.
func NewCollectionHandler(svc *service.CollectionService, kind domain.Kind, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{
		service: svc,
		kind:    kind,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product.
type AddItemRequest struct {
	ProductID     string `json:"productId" validate:"required"`
	Quantity      *int   `json:"quantity"`
	SelectedColor string `json:"selectedColor" validate:"max=50,printable"`
}

// UpdateItemRequest is the JSON request body for setting a line's quantity.
type UpdateItemRequest struct {
	Quantity      *int   `json:"quantity"`
	SelectedColor string `json:"selectedColor" validate:"max=50,printable"`
}

// --- Handlers ---

// List handles GET /api/{kind}
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), middleware.UserIDFromContext(r.Context()), h.kind)
	h.respond(w, r, http.StatusOK, items, err)
}

// Summary handles GET /api/{kind}/summary
func (h *CollectionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), middleware.UserIDFromContext(r.Context()), h.kind)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", map[string]any{"summary": summary})
}

// Add handles POST /api/{kind}
func (h *CollectionHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items, err := h.service.Add(r.Context(), middleware.UserIDFromContext(r.Context()), h.kind, service.ItemInput{
		ProductID:     req.ProductID,
		SelectedColor: req.SelectedColor,
		Quantity:      req.Quantity,
	})
	h.respond(w, r, http.StatusCreated, items, err)
}

// Update handles PATCH /api/{kind}/{productId}
func (h *CollectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	items, err := h.service.SetQuantity(r.Context(), middleware.UserIDFromContext(r.Context()), h.kind, service.ItemInput{
		ProductID:     chi.URLParam(r, "productId"),
		SelectedColor: req.SelectedColor,
		Quantity:      req.Quantity,
	})
	h.respond(w, r, http.StatusOK, items, err)
}

// Remove handles DELETE /api/{kind}/{productId}?selectedColor=
func (h *CollectionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Remove(r.Context(), middleware.UserIDFromContext(r.Context()), h.kind,
		chi.URLParam(r, "productId"), r.URL.Query().Get("selectedColor"))
	h.respond(w, r, http.StatusOK, items, err)
}

// Clear handles DELETE /api/{kind}
func (h *CollectionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Clear(r.Context(), middleware.UserIDFromContext(r.Context()), h.kind)
	h.respond(w, r, http.StatusOK, items, err)
}

// respond writes the projection under the kind's key, e.g. {"cart": [...]}.
func (h *CollectionHandler) respond(w http.ResponseWriter, r *http.Request, status int, items []domain.LineItemView, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, status, "", map[string]any{h.kind.String(): items})
}

// routes mounts the handler's endpoints on r.
func (h *CollectionHandler) routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/summary", h.Summary)
	r.Post("/", h.Add)
	r.Delete("/", h.Clear)
	r.Patch("/{productId}", h.Update)
	r.Delete("/{productId}", h.Remove)
}
