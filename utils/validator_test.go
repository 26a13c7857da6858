package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signupForm struct {
	Email    string  `validate:"required,email"`
	Name     string  `validate:"required,nameok"`
	Password string  `validate:"required,pwdmin"`
	Confirm  string  `validate:"required,eqfield=Password"`
	Side     string  `validate:"oneof=buy sell"`
	Amount   float64 `validate:"min=100"`
}

func validForm() signupForm {
	return signupForm{
		Email:    "ana@example.com",
		Name:     "Ana María",
		Password: "s3cretpass",
		Confirm:  "s3cretpass",
		Side:     "BUY",
		Amount:   100,
	}
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(validForm()))

	cases := map[string]func(*signupForm){
		"Email is required":             func(f *signupForm) { f.Email = " " },
		"Email must be a valid":         func(f *signupForm) { f.Email = "not-an-email" },
		"Name contains invalid":         func(f *signupForm) { f.Name = "<script>" },
		"Password must be at least 8":   func(f *signupForm) { f.Password, f.Confirm = "short", "short" },
		"Confirm must equal Password":   func(f *signupForm) { f.Confirm = "other-pass" },
		"Side must be one of":           func(f *signupForm) { f.Side = "hold" },
		"Amount must be at least 100":   func(f *signupForm) { f.Amount = 99.99 },
	}
	for want, mutate := range cases {
		f := validForm()
		mutate(&f)
		err := ValidateStruct(&f)
		if assert.Error(t, err, want) {
			assert.Contains(t, err.Error(), want)
		}
	}

	assert.Error(t, ValidateStruct(42))
}
