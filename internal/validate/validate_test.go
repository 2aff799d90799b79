package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	assert.True(t, Email("a@b.com"))
	assert.True(t, Email("first.last+tag@bank.co.uz"))
	assert.False(t, Email("not-an-email"))
	assert.False(t, Email("a@b"))
	assert.False(t, Email("a b@c.com"))
	assert.False(t, Email(""))
}

func TestPhone(t *testing.T) {
	assert.True(t, Phone("+998 (90) 123-45-67"))
	assert.True(t, Phone("0123456789"))
	assert.False(t, Phone("12345"))
	assert.False(t, Phone("phone"))
}

func TestCreditCard(t *testing.T) {
	assert.True(t, CreditCard("4111 1111 1111 1111"))
	assert.True(t, CreditCard("4111111111111"))
	assert.True(t, CreditCard("4111111111111111111"))
	assert.False(t, CreditCard("123"))
	assert.False(t, CreditCard("41111111111111111111"), "20 digits is too long")
	assert.False(t, CreditCard("4111-1111-1111-1111"), "dashes are not stripped")
	// Format only: a number failing Luhn still passes.
	assert.True(t, CreditCard("4111 1111 1111 1112"))
}

func TestPassword(t *testing.T) {
	assert.True(t, Password("secret"))
	assert.True(t, Password("пароль"), "length counts characters, not bytes")
	assert.False(t, Password("12345"))
}

func TestRequired(t *testing.T) {
	assert.True(t, Required(" x "))
	assert.False(t, Required(""))
	assert.False(t, Required(" \t\n"))
}

func TestField(t *testing.T) {
	ok, err := Field("card", "4111 1111 1111 1111")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Field("email", "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Field("zip", "12345")
	assert.Error(t, err)
}

func TestValidator_SignupForm(t *testing.T) {
	v := New()

	valid := SignupForm{
		Name:            "Dilnoza",
		Email:           "d@bank.uz",
		BankID:          "B-100",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
	require.NoError(t, v.Struct(valid))

	invalid := SignupForm{
		Name:            "  ",
		Email:           "not-an-email",
		Password:        "123",
		ConfirmPassword: "321",
	}
	err := v.Struct(invalid)
	require.Error(t, err)

	var verrs Errors
	require.True(t, errors.As(err, &verrs))

	fields := verrs.Map()
	assert.Equal(t, "This field is required", fields["name"])
	assert.Equal(t, "This field is required", fields["bank_id"])
	assert.Equal(t, "Enter a valid email address", fields["email"])
	assert.Contains(t, fields["password"], "at least 6")
	assert.Equal(t, "Values do not match", fields["confirm_password"])
}

func TestValidator_PaymentForm(t *testing.T) {
	v := New()

	err := v.Struct(PaymentForm{Phone: "123", CardNumber: "4111 1111 1111 1111"})
	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "phone", verrs[0].Field)
	assert.Equal(t, TagPhone, verrs[0].Tag)
}

func TestValidator_NonStruct(t *testing.T) {
	err := New().Struct("string")
	require.Error(t, err)

	var verrs Errors
	assert.False(t, errors.As(err, &verrs))
}
