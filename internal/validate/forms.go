package validate

// SignupForm is the account registration form.
type SignupForm struct {
	Name            string `form:"name" json:"name" validate:"fg_required"`
	Email           string `form:"email" json:"email" validate:"fg_required,fg_email"`
	BankID          string `form:"bank_id" json:"bank_id" validate:"fg_required"`
	Password        string `form:"password" json:"password" validate:"fg_password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" validate:"eqfield=Password"`
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `form:"email" json:"email" validate:"fg_required,fg_email"`
	Password string `form:"password" json:"password" validate:"fg_required"`
}

// PaymentForm carries the contact and card fields of a transaction
// entered by hand.
type PaymentForm struct {
	Phone      string `form:"phone" json:"phone" validate:"fg_phone"`
	CardNumber string `form:"card_number" json:"card_number" validate:"fg_card"`
}
