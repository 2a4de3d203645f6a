package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"duck-storefront/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	cardNumberPattern = regexp.MustCompile(`^\d{4} \d{4} \d{4} \d{4}$`)
	expirationPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{4}$`)
	cvvPattern        = regexp.MustCompile(`^\d{3}$`)
)

// CheckoutForm is the buyer's shipping and payment details for one attempt
type CheckoutForm struct {
	Email      string `json:"email" validate:"required,email"`
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	Address    string `json:"address" validate:"required"`
	Apartment  string `json:"apartment"`
	City       string `json:"city" validate:"required"`
	ZipCode    int    `json:"zipCode" validate:"gte=0"`
	CardNumber string `json:"cardNumber" validate:"required,cardnumber,luhn"`
	Expiration string `json:"expiration" validate:"required,expiration"`
	CVV        string `json:"cvv" validate:"required,cvv"`
}

// FormState is what the presentation layer needs to reveal field errors
type FormState struct {
	Touched map[string]bool   `json:"touched,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Valid reports whether no field failed
func (s FormState) Valid() bool {
	return len(s.Errors) == 0
}

// Prefill copies profile fields from the account into blank form fields
func (f *CheckoutForm) Prefill(account *models.Account) {
	if account == nil {
		return
	}
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&f.FirstName, account.FirstName)
	fill(&f.LastName, account.LastName)
	fill(&f.Address, account.Address)
	fill(&f.City, account.City)
	fill(&f.CardNumber, account.Card)
	fill(&f.Expiration, account.ExpDate)
	if f.ZipCode == 0 {
		if zip, err := strconv.Atoi(strings.TrimSpace(account.ZipCode)); err == nil {
			f.ZipCode = zip
		}
	}
	if f.CVV == "" && account.CVV >= 0 {
		f.CVV = fmt.Sprintf("%03d", account.CVV)
	}
}

// FormValidator checks checkout forms
type FormValidator struct {
	validate *validator.Validate
	fields   []string
}

// NewFormValidator registers the storefront's field rules
func NewFormValidator() *FormValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("cardnumber", patternRule(cardNumberPattern))
	_ = v.RegisterValidation("expiration", patternRule(expirationPattern))
	_ = v.RegisterValidation("cvv", patternRule(cvvPattern))
	_ = v.RegisterValidation("luhn", func(fl validator.FieldLevel) bool {
		return passesLuhn(strings.ReplaceAll(fl.Field().String(), " ", ""))
	})

	var fields []string
	t := reflect.TypeOf(CheckoutForm{})
	for i := 0; i < t.NumField(); i++ {
		fields = append(fields, strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0])
	}
	return &FormValidator{validate: v, fields: fields}
}

func patternRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Validate marks every field touched and collects one message per invalid field
func (fv *FormValidator) Validate(form *CheckoutForm) FormState {
	state := FormState{Touched: make(map[string]bool, len(fv.fields)), Errors: map[string]string{}}
	for _, name := range fv.fields {
		state.Touched[name] = true
	}

	err := fv.validate.Struct(form)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return state
	}
	for _, fe := range verrs {
		if _, seen := state.Errors[fe.Field()]; !seen {
			state.Errors[fe.Field()] = fieldMessage(fe)
		}
	}
	return state
}

// Messages returns the field errors in form order
func (fv *FormValidator) Messages(state FormState) []string {
	var msgs []string
	for _, name := range fv.fields {
		if msg, ok := state.Errors[name]; ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "cardnumber":
		return fmt.Sprintf("%s must be in the form XXXX XXXX XXXX XXXX.", fe.Field())
	case "luhn":
		return fmt.Sprintf("%s is not a valid card number.", fe.Field())
	case "expiration":
		return fmt.Sprintf("%s must be in the form of MM/YYYY.", fe.Field())
	case "cvv":
		return fmt.Sprintf("%s must be in the form of XXX.", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to 0.", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address.", fe.Field())
	default:
		return fmt.Sprintf("%s is a required field.", fe.Field())
	}
}

// passesLuhn is the mod 10 check
func passesLuhn(number string) bool {
	if len(number) == 0 {
		return false
	}
	sum := 0
	alternate := false
	for i := len(number) - 1; i >= 0; i-- {
		n, err := strconv.Atoi(string(number[i]))
		if err != nil {
			return false
		}
		if alternate {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		alternate = !alternate
	}
	return sum%10 == 0
}
