package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/product-catalog/internal/product"
)

// numberString accepts a JSON number or string and keeps its text so the
// numeric rules can run on either form. Anything decimal can parse is stored
// in plain notation, so 1e2 becomes "100".
type numberString string

// maxExponent bounds the notation rewrite; larger exponents stay as sent and
// fail the numeric rule.
const maxExponent = 64

func (n *numberString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var s string
	switch {
	case bytes.Equal(b, []byte("null")):
	case len(b) > 0 && b[0] == '"':
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	default:
		s = string(b)
	}
	if d, err := decimal.NewFromString(s); err == nil && d.Exponent() > -maxExponent && d.Exponent() < maxExponent {
		s = d.String()
	}
	*n = numberString(s)
	return nil
}

// ProductRequest is the body of POST and PUT /products.
// swagger:model ProductRequest
type ProductRequest struct {
	Name        string       `json:"name"        binding:"required,max=255" example:"Mechanical Keyboard"`
	Description *string      `json:"description"                            example:"RGB 60%"`
	Price       numberString `json:"price"       binding:"required,numeric" swaggertype:"number" example:"199.90"`
	Stock       numberString `json:"stock"       binding:"required,integer" swaggertype:"integer" example:"10"`
}

func (r ProductRequest) toInput() (product.Input, error) {
	price, err := decimal.NewFromString(string(r.Price))
	if err != nil {
		return product.Input{}, fmt.Errorf("price: %w", err)
	}
	stock, err := strconv.Atoi(string(r.Stock))
	if err != nil {
		return product.Input{}, fmt.Errorf("stock: %w", err)
	}
	return product.Input{Name: r.Name, Description: r.Description, Price: price, Stock: stock}, nil
}

// ValidationError carries the messages of every failed rule, keyed by field.
type ValidationError struct {
	Errors map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Errors))
}

func (e *ValidationError) add(field, msg string) {
	if e.Errors == nil {
		e.Errors = map[string][]string{}
	}
	e.Errors[field] = append(e.Errors[field], msg)
}

var integerRE = regexp.MustCompile(`^[-+]?[0-9]+$`)

var registerOnce sync.Once

// registerValidators teaches gin's validator the "integer" rule and makes it
// report fields by their JSON names. It panics when the rule cannot be
// installed, since every product request depends on it.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic(fmt.Sprintf("unexpected validator engine %T", binding.Validator.Engine()))
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("integer", isInteger); err != nil {
			panic(fmt.Sprintf("register integer rule: %v", err))
		}
	})
}

func isInteger(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !integerRE.MatchString(s) {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

// bindProduct decodes and validates the request body.
func bindProduct(c *gin.Context) (product.Input, error) {
	var req ProductRequest
	err := c.ShouldBindJSON(&req)
	if errors.Is(err, io.EOF) {
		// an empty body is validated as an empty object
		err = binding.Validator.ValidateStruct(&req)
	}
	if err != nil {
		return product.Input{}, toValidationError(err)
	}
	in, err := req.toInput()
	if err != nil {
		ve := &ValidationError{}
		ve.add(strings.SplitN(err.Error(), ":", 2)[0], "The value is out of range.")
		return product.Input{}, ve
	}
	return in, nil
}

func toValidationError(err error) *ValidationError {
	ve := &ValidationError{}

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			ve.add(fe.Field(), message(fe))
		}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		ve.add(typeErr.Field, fmt.Sprintf("The %s field must be a %s.", typeErr.Field, typeName(typeErr.Type)))
	default:
		ve.add("body", "The request body must be a valid JSON object.")
	}
	return ve
}

func message(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", f)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", f, fe.Param())
	case "numeric":
		return fmt.Sprintf("The %s field must be a number.", f)
	case "integer":
		return fmt.Sprintf("The %s field must be an integer.", f)
	}
	return fmt.Sprintf("The %s field is invalid.", f)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int64, reflect.Float64:
		return "number"
	}
	return t.Kind().String()
}
