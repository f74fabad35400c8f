package helper

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"novabyte-blog/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/rs/zerolog"
	"gopkg.in/go-playground/validator.v9"
	en_translations "gopkg.in/go-playground/validator.v9/translations/en"
)

const (
	textError             = `error`
	textOk                = `ok`
	codeSuccess           = 200
	codeCreated           = 201
	codeBadRequestError   = 400
	codeUnauthorizedError = 401
	codeForbiddenError    = 403
	codeNotFound          = 404
	codeConflict          = 409
	codeValidationError   = 422
	codeDatabaseError     = 500
	codeUnavailable       = 503
)

// ResponseHelper ...
type ResponseHelper struct {
	C        *gin.Context
	Status   string
	Message  string
	Data     interface{}
	Code     int
	CodeType string
}

// HTTPHelper ...
type HTTPHelper struct {
	Validate   *validator.Validate
	Translator ut.Translator
}

// NewHTTPHelper wires validator.v9 with English messages and json field
// names.
func NewHTTPHelper() *HTTPHelper {
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = en_translations.RegisterDefaultTranslations(validate, trans)

	return &HTTPHelper{Validate: validate, Translator: trans}
}

// GetStatusCode ...
func (u *HTTPHelper) GetStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var (
		notFound     models.ErrorNotFound
		unauthorized models.ErrorUnauthorized
		forbidden    models.ErrorForbidden
		conflict     models.ErrorConflict
		invalid      models.ErrorValidation
		canceled     models.ErrorCanceled
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// BindJSON decodes and validates the request body into req. On failure it
// has already written the response and returns false.
func (u *HTTPHelper) BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		u.SendBadRequest(c, "invalid request body: "+err.Error(), u.EmptyJsonMap())
		return false
	}
	if err := u.Validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			u.SendValidationError(c, validationErrors)
			return false
		}
		u.SendBadRequest(c, err.Error(), u.EmptyJsonMap())
		return false
	}
	return true
}

// SetResponse ...
// Set response data.
func (u *HTTPHelper) SetResponse(c *gin.Context, status string, message string, data interface{}, code int, codeType string) ResponseHelper {
	return ResponseHelper{c, status, message, data, code, codeType}
}

// SendError ...
// Send error response to consumers.
func (u *HTTPHelper) SendError(c *gin.Context, message string, data interface{}, code int, codeType string) {
	res := u.SetResponse(c, textError, message, data, code, codeType)
	u.SendResponse(res)
}

// SendErrorFromErr picks status and code type from the error kind. Server
// side failures are logged and reported without their internals.
func (u *HTTPHelper) SendErrorFromErr(c *gin.Context, err error) {
	status := u.GetStatusCode(err)

	var invalid models.ErrorValidation
	switch {
	case errors.As(err, &invalid):
		u.SendError(c, "validation failed", invalid.Err, codeValidationError, `validationError`)
	case status == http.StatusNotFound:
		u.SendNotFoundError(c, err.Error(), u.EmptyJsonMap())
	case status == http.StatusUnauthorized:
		u.SendUnauthorizedError(c, err.Error(), u.EmptyJsonMap())
	case status == http.StatusForbidden:
		u.SendForbiddenError(c, err.Error(), u.EmptyJsonMap())
	case status == http.StatusConflict:
		u.SendError(c, err.Error(), u.EmptyJsonMap(), codeConflict, `conflict`)
	case status == http.StatusServiceUnavailable:
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("request canceled")
		u.SendError(c, "request canceled", u.EmptyJsonMap(), codeUnavailable, `canceled`)
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		u.SendDatabaseError(c, "internal error", u.EmptyJsonMap())
	}
}

// SendBadRequest ...
// Send bad request response to consumers.
func (u *HTTPHelper) SendBadRequest(c *gin.Context, message string, data interface{}) {
	u.SendError(c, message, data, codeBadRequestError, `badRequest`)
}

// SendValidationError ...
// Send validation error response to consumers.
func (u *HTTPHelper) SendValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	errorResponse := map[string][]string{}
	errorTranslation := validationErrors.Translate(u.Translator)
	for _, err := range validationErrors {
		errKey := Underscore(err.StructField())
		errorResponse[errKey] = append(errorResponse[errKey], errorTranslation[err.Namespace()])
	}

	c.JSON(http.StatusBadRequest, map[string]interface{}{
		"code":         codeValidationError,
		"code_type":    "validationError",
		"code_message": errorResponse,
		"data":         u.EmptyJsonMap(),
	})
}

// SendDatabaseError ...
// Send database error response to consumers.
func (u *HTTPHelper) SendDatabaseError(c *gin.Context, message string, data interface{}) {
	u.SendError(c, message, data, codeDatabaseError, `databaseError`)
}

// SendUnauthorizedError ...
// Send unauthorized response to consumers.
func (u *HTTPHelper) SendUnauthorizedError(c *gin.Context, message string, data interface{}) {
	u.SendError(c, message, data, codeUnauthorizedError, `unAuthorized`)
}

// SendForbiddenError ...
func (u *HTTPHelper) SendForbiddenError(c *gin.Context, message string, data interface{}) {
	u.SendError(c, message, data, codeForbiddenError, `forbidden`)
}

// SendNotFoundError ...
// Send not found response to consumers.
func (u *HTTPHelper) SendNotFoundError(c *gin.Context, message string, data interface{}) {
	u.SendError(c, message, data, codeNotFound, `notFound`)
}

// SendSuccess ...
// Send success response to consumers.
func (u *HTTPHelper) SendSuccess(c *gin.Context, message string, data interface{}) {
	res := u.SetResponse(c, textOk, message, data, codeSuccess, `success`)
	u.SendResponse(res)
}

// SendCreated ...
func (u *HTTPHelper) SendCreated(c *gin.Context, message string, data interface{}) {
	res := u.SetResponse(c, textOk, message, data, codeCreated, `created`)
	u.SendResponse(res)
}

// SendResponse ...
// Send response. The envelope code doubles as the HTTP status, except that
// validation failures travel as 400.
func (u *HTTPHelper) SendResponse(res ResponseHelper) {
	if len(res.Message) == 0 {
		res.Message = `success`
	}

	resCode := res.Code
	if res.Code == codeValidationError {
		resCode = http.StatusBadRequest
	}

	res.C.JSON(resCode, map[string]interface{}{
		"code":         res.Code,
		"code_type":    res.CodeType,
		"code_message": res.Message,
		"data":         res.Data,
	})
}

func (u *HTTPHelper) EmptyJsonMap() map[string]interface{} {
	return make(map[string]interface{})
}

// Underscore converts CamelCase to snake_case, keeping acronyms together:
// "PostID" -> "post_id".
func Underscore(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
