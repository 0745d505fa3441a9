package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/farmdirect/farmdirect-orders/internal/geo"
)

// New returns a configured validator with the custom pincode rule registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// "pincode": exactly 6 digits, same format check the pricing engine uses.
	_ = v.RegisterValidation("pincode", func(fl validatorv10.FieldLevel) bool {
		return geo.ValidPincode(fl.Field().String())
	})

	return v
}
