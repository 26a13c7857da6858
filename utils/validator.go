package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// ValidateStruct checks `validate:"..."` tags and returns the first failure.
// Supported rules:
// - required
// - email
// - nameok (letters, numbers, space, hyphen, apostrophe, 1-100 chars)
// - pwdmin (min length 8)
// - eqfield=OtherField
// - oneof=a b c
// - min=N (numeric fields)

var (
	reEmail  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	reNameOK = regexp.MustCompile(`^[\p{L}0-9 \-'.]{1,100}$`)
)

func ValidateStruct(s interface{}) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.New("ValidateStruct expects a struct or pointer to struct")
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}
		fv := v.Field(i)
		if err := validateField(v, field.Name, fv, strings.Split(tag, ",")); err != nil {
			return err
		}
	}
	return nil
}

func validateField(parent reflect.Value, name string, fv reflect.Value, rules []string) error {
	var sval string
	isString := fv.Kind() == reflect.String
	if isString {
		sval = fv.String()
	}
	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		switch {
		case rule == "required":
			if isString && strings.TrimSpace(sval) == "" || !isString && fv.IsZero() {
				return errors.New(name + " is required")
			}
		case rule == "email":
			if sval != "" && !reEmail.MatchString(sval) {
				return errors.New(name + " must be a valid email address")
			}
		case rule == "nameok":
			if sval != "" && !reNameOK.MatchString(sval) {
				return errors.New(name + " contains invalid characters")
			}
		case rule == "pwdmin":
			if len(sval) < 8 {
				return errors.New(name + " must be at least 8 characters")
			}
		case strings.HasPrefix(rule, "eqfield="):
			other := parent.FieldByName(strings.TrimPrefix(rule, "eqfield="))
			if other.IsValid() && other.Kind() == reflect.String && sval != other.String() {
				return errors.New(name + " must equal " + strings.TrimPrefix(rule, "eqfield="))
			}
		case strings.HasPrefix(rule, "oneof="):
			if sval == "" {
				continue
			}
			allowed := strings.Fields(strings.TrimPrefix(rule, "oneof="))
			ok := false
			for _, a := range allowed {
				if strings.EqualFold(a, sval) {
					ok = true
					break
				}
			}
			if !ok {
				return errors.New(name + " must be one of: " + strings.Join(allowed, ", "))
			}
		case strings.HasPrefix(rule, "min="):
			min, err := strconv.ParseFloat(strings.TrimPrefix(rule, "min="), 64)
			if err != nil {
				continue
			}
			var n float64
			switch fv.Kind() {
			case reflect.Float32, reflect.Float64:
				n = fv.Float()
			case reflect.Int, reflect.Int32, reflect.Int64:
				n = float64(fv.Int())
			default:
				continue
			}
			if n < min {
				return errors.New(name + " must be at least " + strings.TrimPrefix(rule, "min="))
			}
		}
	}
	return nil
}
