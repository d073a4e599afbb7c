package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

type form struct {
	Name    string `json:"name"    validate:"required"`
	Pincode string `json:"pincode" validate:"required,pincode"`
	UPI     string `json:"upiId"   validate:"omitempty,upi"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name           string
		form           form
		expectedFields map[string]string
	}{
		{
			name:           "given valid form should pass",
			form:           form{Name: "Asha", Pincode: "560001", UPI: "asha@okbank"},
			expectedFields: nil,
		},
		{
			name: "given empty pincode should report required",
			form: form{Name: "Asha"},
			expectedFields: map[string]string{
				"pincode": "pincode is required",
			},
		},
		{
			name: "given short pincode and bad upi should report both",
			form: form{Name: "Asha", Pincode: "5600", UPI: "asha"},
			expectedFields: map[string]string{
				"pincode": "pincode must be 6 digits",
				"upiId":   "enter a valid UPI id like name@bank",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(context.Background(), tt.form)
			if tt.expectedFields == nil {
				require.NoError(t, err)
				return
			}
			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.expectedFields, verr.FieldErrors())
			assert.ErrorIs(t, err, inErrors.ErrValidation)
		})
	}
}

func TestRules(t *testing.T) {
	assert.True(t, IsCardNumber("4111111111111111"))
	assert.True(t, IsCardNumber("4111 1111 1111 1111"))
	assert.True(t, IsCardNumber("4111-1111-1111-1111"))
	assert.False(t, IsCardNumber("1234"))
	assert.False(t, IsCardNumber("4111a11111111111"))

	assert.True(t, IsCardExpiry("09/27"))
	assert.True(t, IsCardExpiry("12/30"))
	assert.False(t, IsCardExpiry("13/29"))
	assert.False(t, IsCardExpiry("00/29"))
	assert.False(t, IsCardExpiry("9/27"))

	assert.True(t, IsCVV("123"))
	assert.True(t, IsCVV("1234"))
	assert.False(t, IsCVV("12"))
	assert.False(t, IsCVV("12345"))

	assert.True(t, IsUPI("user.name@bank"))
	assert.False(t, IsUPI("userbank"))
	assert.False(t, IsUPI("u@bank"))

	assert.True(t, IsPincode("110001"))
	assert.False(t, IsPincode("11000"))
	assert.False(t, IsPincode("11000a"))
}
