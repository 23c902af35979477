package validation

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Violation es un error de un campo concreto del payload.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error agrupa las violaciones; los handlers lo traducen a 400 + details.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "invalid data"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "invalid data: " + strings.Join(parts, "; ")
}

// Messages traduce una regla fallida a texto para el usuario.
// Clave "campo.tag" (p.ej. "birthDate.required") o solo "campo" como fallback.
type Messages map[string]string

const defaultMessage = "Valor inválido"

var (
	once     sync.Once
	validate *validator.Validate
)

// instance devuelve el validator compartido. Los campos se nombran por su tag json.
func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
			panic(err)
		}
		validate = v
	})
	return validate
}

// MustRegister agrega una regla propia. Llamar solo desde init/var de paquete.
func MustRegister(tag string, fn validator.Func) {
	if err := instance().RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Struct valida s y devuelve *Error con una violación por campo, en orden de declaración.
func Struct(s any, msgs Messages) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, Violation{Field: fe.Field(), Message: msgs.lookup(fe.Field(), fe.Tag())})
	}
	return &Error{Violations: out}
}

func (m Messages) lookup(field, tag string) string {
	if msg, ok := m[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := m[field]; ok {
		return msg
	}
	return defaultMessage
}

// maxbytes=N: largo en bytes, no en runas (bcrypt corta en 72 bytes).
func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}
