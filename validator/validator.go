package validator

import (
	"sync"

	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/NethermindEth/starknet-api/utils"
	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

// validateFelt accepts strings that parse as a canonical field element.
func validateFelt(fl validator.FieldLevel) bool {
	var f felt.Felt
	return f.UnmarshalText([]byte(fl.Field().String())) == nil
}

func validateNetwork(fl validator.FieldLevel) bool {
	n, ok := fl.Field().Interface().(utils.Network)
	return ok && n.Known()
}

// Validator returns a singleton that can be used to validate various objects
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New()

		if err := v.RegisterValidation("felt", validateFelt); err != nil {
			panic("failed to register validation: " + err.Error())
		}

		if err := v.RegisterValidation("network", validateNetwork); err != nil {
			panic("failed to register validation: " + err.Error())
		}
	})
	return v
}
