package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"e7-casework/casework"
	"e7-casework/shared"
)

// linkRole parses the role of an upload link. An unknown role is answered
// like an unknown token.
func linkRole(c *gin.Context) (shared.Role, bool) {
	role, ok := shared.ParseRole(c.Param("role"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": invalidLinkMessage})
	}
	return role, ok
}

func (r *Router) showUpload(c *gin.Context) {
	role, ok := linkRole(c)
	if !ok {
		return
	}
	page, err := r.cases.ResolveUpload(c.Request.Context(), role, c.Param("token"))
	if err != nil {
		r.writeSubmitterError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (r *Router) uploadDocument(c *gin.Context) {
	role, ok := linkRole(c)
	if !ok {
		return
	}
	f, closeFile, ok := formFile(c)
	if !ok {
		return
	}
	defer closeFile()

	status, err := r.cases.Upload(c.Request.Context(), role, c.Param("token"), c.Param("docId"), f)
	if err != nil {
		r.writeSubmitterError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documentId": c.Param("docId"), "reviewStatus": status})
}

func (r *Router) removeUpload(c *gin.Context) {
	role, ok := linkRole(c)
	if !ok {
		return
	}
	if err := r.cases.RemoveUpload(c.Request.Context(), role, c.Param("token"), c.Param("docId")); err != nil {
		r.writeSubmitterError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) submit(c *gin.Context) {
	role, ok := linkRole(c)
	if !ok {
		return
	}
	at, err := r.cases.Submit(c.Request.Context(), role, c.Param("token"))
	if err != nil {
		r.writeSubmitterError(c, err)
		return
	}
	c.JSON(http.StatusOK, shared.Submission{IsSubmitted: true, SubmittedAt: &at})
}

// formFile opens the "file" part of a multipart request.
func formFile(c *gin.Context) (casework.File, func(), bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "multipart field \"file\" is required")
		return casework.File{}, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "file could not be read")
		return casework.File{}, nil, false
	}
	return casework.File{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Content:  f,
	}, func() { _ = f.Close() }, true
}
