package httpapi

import (
	"errors"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

type CartHandler struct {
	catalog *catalog.Catalog
	metrics MutationRecorder
}

type addItemRequest struct {
	ProductID int  `json:"productId"`
	Quantity  *int `json:"quantity,omitempty"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type setOpenRequest struct {
	Open bool `json:"open"`
}

type addItemResponse struct {
	Merged bool         `json:"merged"`
	Cart   cart.Summary `json:"cart"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Cart.Summary())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if qty < 1 || qty > cart.MaxQuantity {
		writeError(w, http.StatusBadRequest, cart.ErrInvalidQuantity.Error())
		return
	}

	p, err := h.catalog.Get(req.ProductID)
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if !p.Available {
		writeError(w, http.StatusConflict, "product is not available")
		return
	}

	c := sessionFrom(r.Context()).Cart
	merged, err := c.AddItem(r.Context(), p, qty)
	if err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) || errors.Is(err, cart.ErrInvalidPrice) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}
	h.metrics.CartMutated("add")

	writeJSON(w, http.StatusOK, addItemResponse{Merged: merged, Cart: c.Summary()})
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req setQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c := sessionFrom(r.Context()).Cart
	if err := c.SetQuantity(r.Context(), id, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}
	h.metrics.CartMutated("set_quantity")
	writeJSON(w, http.StatusOK, c.Summary())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	c := sessionFrom(r.Context()).Cart
	if err := c.RemoveItem(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}
	h.metrics.CartMutated("remove")
	writeJSON(w, http.StatusOK, c.Summary())
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	c := sessionFrom(r.Context()).Cart
	if err := c.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}
	h.metrics.CartMutated("clear")
	writeJSON(w, http.StatusOK, c.Summary())
}

func (h *CartHandler) SetOpen(w http.ResponseWriter, r *http.Request) {
	var req setOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	c := sessionFrom(r.Context()).Cart
	c.SetOpen(req.Open)
	writeJSON(w, http.StatusOK, c.Summary())
}
