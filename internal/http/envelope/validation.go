package envelope

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zhtranslations "github.com/go-playground/validator/v10/translations/zh"
	log "github.com/sirupsen/logrus"
)

// ValidationError reports a rejected request parameter.
type ValidationError struct {
	Message string
	cause   error
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.cause }

// BindJSON decodes the request body into obj and runs its binding rules.
// Malformed bodies become a ValidationError; rule violations keep their
// validator.ValidationErrors type.
func BindJSON(c *gin.Context, obj any) error {
	setupTranslator()
	errBind := c.ShouldBindJSON(obj)
	if errBind == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(errBind, &verrs) {
		return verrs
	}
	return &ValidationError{Message: "请求参数格式错误", cause: errBind}
}

var (
	translatorOnce sync.Once
	translator     ut.Translator
)

// setupTranslator registers Chinese messages and JSON field names on gin's
// validator.
func setupTranslator() {
	translatorOnce.Do(func() {
		zhLocale := zh.New()
		translator, _ = ut.New(zhLocale, zhLocale).GetTranslator("zh")
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		if errRegister := zhtranslations.RegisterDefaultTranslations(v, translator); errRegister != nil {
			log.WithError(errRegister).Warn("register validation translations failed")
		}
	})
}

// validationMessage joins field messages with "; ".
func validationMessage(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fieldMessage(fe))
	}
	return strings.Join(parts, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	if translator != nil {
		if msg := fe.Translate(translator); msg != "" && msg != fe.Error() {
			return msg
		}
	}
	return fmt.Sprintf("%s校验失败(%s)", lowerFirst(fe.Field()), fe.Tag())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
