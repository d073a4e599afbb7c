package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Alturino/storefront/internal/validate"
)

// DecodeAndValidate reads the json body of r into v and runs the struct validation rules.
// Decode failures are plain errors, rule failures are *validate.Error.
func DecodeAndValidate(c context.Context, r *http.Request, v interface{}) error {
	if err := Decode(r, v); err != nil {
		return err
	}
	if err := validate.Struct(c, v); err != nil {
		return fmt.Errorf("failed validating request body with error=%w", err)
	}
	return nil
}

// Decode reads the json body of r into v. Forms validated later by the domain use this directly.
func Decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("failed decoding request body with error=%w", err)
	}
	return nil
}
