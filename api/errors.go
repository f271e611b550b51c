package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"e7-casework/caseerr"
)

const invalidLinkMessage = "invalid link"

func statusOf(err error) int {
	switch caseerr.CodeOf(err) {
	case caseerr.CodeNotFound:
		return http.StatusNotFound
	case caseerr.CodeInvalidTransition, caseerr.CodeCannotModifyRequired:
		return http.StatusConflict
	case caseerr.CodeLockedBySubmission:
		return http.StatusLocked
	case caseerr.CodeIncompleteRequiredDocuments:
		return http.StatusUnprocessableEntity
	case caseerr.CodeInvalidInput, caseerr.CodeFileReadFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err for the agent.
func (r *Router) writeError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		r.logger.Error("request failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	body := gin.H{"error": err.Error(), "code": caseerr.CodeOf(err)}
	if missing := caseerr.MissingOf(err); len(missing) > 0 {
		body["missing"] = missing
	}
	c.JSON(status, body)
}

// writeSubmitterError renders err behind an upload link. NotFound never
// says whether the token, the role or the case was wrong.
func (r *Router) writeSubmitterError(c *gin.Context, err error) {
	if errors.Is(err, caseerr.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": invalidLinkMessage})
		return
	}
	r.writeError(c, err)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": caseerr.CodeInvalidInput})
}
