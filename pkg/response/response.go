package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform body for every non-204 response: exactly one of
// Data/Errors is non-null, the other key is still emitted as null.
type Envelope struct {
	Data   any `json:"data"`
	Errors any `json:"errors"`
}

// FieldErrors maps a field name to the list of messages raised against it.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Success writes a success envelope. Pass http.StatusOK/Created etc.
func Success(c *gin.Context, status int, data any) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, Envelope{Data: data})
}

// Failure writes a failure envelope with the given errors payload.
func Failure(c *gin.Context, status int, errs any) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, Envelope{Errors: errs})
}

// NotFound writes the 404 failure shape: a single descriptive message.
func NotFound(c *gin.Context, msg string) {
	Failure(c, http.StatusNotFound, gin.H{"detail": msg})
}

// NoContent writes 204 with no body. The destroy path is the one exception
// to the envelope rule and must stay body-less for compatibility.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
