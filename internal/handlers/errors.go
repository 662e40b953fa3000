package handlers

import (
	"errors"
	"net/http"
	"strings"

	dom "todoapi/internal/domain"
	"todoapi/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindError answers 400 for a body that failed to decode or bind, naming
// each field and the rule it broke.
func bindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			fields[jsonFieldName(fe)] = rule
		}
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid input", Fields: fields})
		return
	}
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
}

// serviceError answers 400 for validation failures and 500 for store errors.
func serviceError(c *gin.Context, err error) {
	var ve *dom.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:  "invalid input",
			Fields: map[string]string{ve.Field: ve.Reason},
		})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
}

// jsonFieldName turns validator's Go field name into the wire name.
func jsonFieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "ID":
		return "id"
	default:
		return strings.ToLower(fe.Field())
	}
}
