package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Error lists every problem found in a request, one message per problem
type Error struct {
	Errors []string
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// NewError builds an Error from messages
func NewError(messages ...string) *Error {
	return &Error{Errors: messages}
}

// Normalizer is implemented by request types that clean their input (trimming, lowercasing)
// before the rules run.
type Normalizer interface {
	Normalize()
}

const (
	msgInvalidBody    = "El cuerpo de la solicitud debe ser un objeto JSON válido"
	msgUnreadableBody = "No se pudo leer el cuerpo de la solicitud"
)

// maxUnixTime is 9999-12-31T23:59:59Z
const maxUnixTime = 253402300799

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

var (
	engine     *validator.Validate
	engineOnce sync.Once
)

// Engine returns the shared validator configured with binding tags, JSON field names and
// the custom rules used by the request types.
func Engine() *validator.Validate {
	engineOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.SetTagName("binding")
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			return jsonName(f)
		})
		_ = v.RegisterValidation("nonempty", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("emailformat", func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		})
		// Whole seconds only, within the range int64 storage and time.Unix round-trip
		_ = v.RegisterValidation("unixtime", func(fl validator.FieldLevel) bool {
			f := fl.Field().Float()
			return f == math.Trunc(f) && f >= 1 && f <= maxUnixTime
		})
		engine = v
	})
	return engine
}

// Bind reads the request body into dst and validates it.
// It returns *Error listing every malformed or rule-breaking field.
func Bind(c *gin.Context, dst interface{}) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return NewError(msgUnreadableBody)
	}
	return BindJSON(body, dst)
}

// BindJSON decodes body into dst field by field so that one bad field does not hide the others,
// then runs the binding rules on everything that decoded.
func BindJSON(body []byte, dst interface{}) error {
	typeErrs, err := decode(body, dst)
	if err != nil {
		return err
	}
	if n, ok := dst.(Normalizer); ok {
		n.Normalize()
	}
	return collect(dst, typeErrs, ruleErrors(dst, typeErrs))
}

// Struct validates an already decoded request
func Struct(dst interface{}) error {
	if n, ok := dst.(Normalizer); ok {
		n.Normalize()
	}
	return collect(dst, nil, ruleErrors(dst, nil))
}

func decode(body []byte, dst interface{}) (map[string]string, error) {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("validation: destination must be a pointer to struct, got %T", dst)
	}

	raw := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, NewError(msgInvalidBody)
		}
	}

	elem := rv.Elem()
	typ := elem.Type()
	typeErrs := map[string]string{}
	for i := 0; i < typ.NumField(); i++ {
		name := jsonName(typ.Field(i))
		if name == "" {
			continue
		}
		value, ok := raw[name]
		if !ok || string(bytes.TrimSpace(value)) == "null" {
			continue
		}
		field := elem.Field(i)
		if err := json.Unmarshal(value, field.Addr().Interface()); err != nil {
			field.Set(reflect.Zero(field.Type()))
			typeErrs[name] = message(name, "type", "")
		}
	}
	return typeErrs, nil
}

func ruleErrors(dst interface{}, skip map[string]string) map[string]string {
	out := map[string]string{}

	err := Engine().Struct(dst)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out
	}
	for _, fe := range verrs {
		name := fe.Field()
		if _, failed := skip[name]; failed {
			continue
		}
		if _, seen := out[name]; !seen {
			out[name] = message(name, fe.Tag(), fe.Param())
		}
	}
	return out
}

// collect orders messages by struct field order
func collect(dst interface{}, typeErrs, ruleErrs map[string]string) error {
	typ := reflect.TypeOf(dst)
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	var messages []string
	for i := 0; i < typ.NumField(); i++ {
		name := jsonName(typ.Field(i))
		if msg, ok := typeErrs[name]; ok {
			messages = append(messages, msg)
		} else if msg, ok := ruleErrs[name]; ok {
			messages = append(messages, msg)
		}
	}
	if len(messages) == 0 {
		return nil
	}
	return NewError(messages...)
}

func jsonName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}

// Number accepts a JSON number or a numeric string
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("number: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("number: %w", err)
	}
	*n = Number(f)
	return nil
}
