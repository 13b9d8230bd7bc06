package httpapi

import (
	"errors"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.List())
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := h.catalog.Get(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
