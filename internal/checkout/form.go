package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

// Form holds the shipping and payment fields collected at checkout.
type Form struct {
	Name          string              `json:"name" validate:"required"`
	Phone         string              `json:"phone" validate:"required"`
	Street        string              `json:"street" validate:"required"`
	City          string              `json:"city" validate:"required"`
	PostalCode    string              `json:"postalCode" validate:"required"`
	PaymentMethod order.PaymentMethod `json:"paymentMethod" validate:"oneof=upi cod"`
}

// normalized trims every field and applies the upi default.
func (f Form) normalized() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Street = strings.TrimSpace(f.Street)
	f.City = strings.TrimSpace(f.City)
	f.PostalCode = strings.TrimSpace(f.PostalCode)
	f.PaymentMethod = order.PaymentMethod(strings.ToLower(strings.TrimSpace(string(f.PaymentMethod))))
	if f.PaymentMethod == "" {
		f.PaymentMethod = order.PaymentUPI
	}
	return f
}

func (f Form) address() order.Address {
	return order.Address{
		Name:       f.Name,
		Phone:      f.Phone,
		Street:     f.Street,
		City:       f.City,
		PostalCode: f.PostalCode,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateForm(v *validator.Validate, f Form) error {
	err := v.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	return &ValidationError{Fields: formatValidationErrors(verrs)}
}

func formatValidationErrors(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		case "oneof":
			fields[field] = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
		default:
			fields[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return fields
}
