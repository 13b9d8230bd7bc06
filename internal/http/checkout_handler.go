package httpapi

import (
	"errors"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

type CheckoutHandler struct{}

type checkoutView struct {
	Status checkout.Status `json:"status"`
	Cart   cart.Summary    `json:"cart"`
}

type validationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (h *CheckoutHandler) Enter(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	status, err := s.Checkout.Enter()
	if errors.Is(err, checkout.ErrEmptyCart) {
		redirectHome(w, r)
		return
	}
	writeJSON(w, http.StatusOK, checkoutView{Status: status, Cart: s.Cart.Summary()})
}

func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form checkout.Form
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s := sessionFrom(r.Context())
	// The result channel is buffered; progress is read back through State.
	if _, err := s.Checkout.Submit(r.Context(), form); err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, validationErrorResponse{
				Error:  "please fill in all required fields",
				Fields: verr.Fields,
			})
		case errors.Is(err, checkout.ErrSubmissionInFlight):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, checkout.ErrEmptyCart):
			redirectHome(w, r)
		default:
			writeError(w, http.StatusInternalServerError, "failed to start checkout")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, s.Checkout.State())
}

func (h *CheckoutHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	c, err := order.Confirm(sessionFrom(r.Context()).Mailbox)
	if err != nil {
		redirectHome(w, r)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
