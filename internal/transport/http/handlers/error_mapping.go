package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorMapping translates usecase sentinel errors into HTTP responses. Rules
// match in insertion order; anything unmatched gets the fallback.
type ErrorMapping struct {
	rules    []errorRule
	fallback errorRule
}

type errorRule struct {
	err     error
	status  int
	message string
}

// NewErrorMapping starts a mapping whose unmatched errors produce the given
// fallback response.
func NewErrorMapping(fallbackStatus int, fallbackMessage string) *ErrorMapping {
	return &ErrorMapping{fallback: errorRule{status: fallbackStatus, message: fallbackMessage}}
}

// On adds a sentinel-to-response rule.
func (m *ErrorMapping) On(err error, status int, message string) *ErrorMapping {
	m.rules = append(m.rules, errorRule{err: err, status: status, message: message})
	return m
}

// Respond writes the mapped response for err.
func (m *ErrorMapping) Respond(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, rule := range m.rules {
		if rule.err != nil && errors.Is(err, rule.err) {
			c.JSON(rule.status, NewErrorResponse(c, rule.message))
			return
		}
	}

	c.JSON(m.fallback.status, NewErrorResponse(c, m.fallback.message))
}
