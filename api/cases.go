package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"e7-casework/casework"
	"e7-casework/shared"
)

func partyRole(c *gin.Context) (shared.Role, bool) {
	role, ok := shared.ParseRole(c.Param("role"))
	if !ok {
		badRequest(c, "unknown role")
	}
	return role, ok
}

func (r *Router) listCases(c *gin.Context) {
	cases, err := r.cases.ListCases(c.Request.Context())
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

func (r *Router) createCase(c *gin.Context) {
	var in casework.NewCase
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	created, err := r.cases.CreateCase(c.Request.Context(), in)
	if err != nil {
		r.writeError(c, err)
		return
	}
	links, err := r.cases.UploadLinks(c.Request.Context(), created.ID)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"case": created, "links": links})
}

func (r *Router) getCase(c *gin.Context) {
	overview, err := r.cases.Overview(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (r *Router) deleteCase(c *gin.Context) {
	if err := r.cases.DeleteCase(c.Request.Context(), c.Param("id")); err != nil {
		r.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) links(c *gin.Context) {
	links, err := r.cases.UploadLinks(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

func (r *Router) lifecycleStatus(c *gin.Context) {
	if r.lifecycle == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "lifecycle workflows are not enabled"})
		return
	}
	// Existence check first so unknown cases are 404 rather than a query error.
	if _, err := r.cases.GetCase(c.Request.Context(), c.Param("id")); err != nil {
		r.writeError(c, err)
		return
	}
	status, err := r.lifecycle.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (r *Router) setFlags(c *gin.Context) {
	var flags shared.CaseFlags
	if err := c.ShouldBindJSON(&flags); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	updated, err := r.cases.SetFlags(c.Request.Context(), c.Param("id"), flags)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (r *Router) setStep(c *gin.Context) {
	var body struct {
		Step shared.Step `json:"step"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	updated, err := r.cases.SetStep(c.Request.Context(), c.Param("id"), body.Step)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentStep": updated.CurrentStep})
}

func (r *Router) setMemo(c *gin.Context) {
	var body struct {
		Memo string `json:"memo"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	updated, err := r.cases.SetMemo(c.Request.Context(), c.Param("id"), body.Memo)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memo": updated.Memo, "memoUpdatedAt": updated.MemoUpdatedAt})
}

func (r *Router) saveForm(c *gin.Context) {
	var form shared.FormData
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	updated, err := r.cases.SaveFormData(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated.FormData)
}

func (r *Router) generate(c *gin.Context) {
	docs, err := r.cases.GenerateDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (r *Router) editGenerated(c *gin.Context) {
	var body shared.GeneratedDocuments
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	docs, err := r.cases.EditGenerated(c.Request.Context(), c.Param("id"), body.EmploymentReason, body.JobDescription)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (r *Router) complete(c *gin.Context) {
	done, err := r.cases.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": done.Status, "completedAt": done.CompletedAt})
}

func (r *Router) export(c *gin.Context) {
	art, err := r.cases.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(art.Filename))
	c.Data(http.StatusOK, art.ContentType, art.Data)
}

func (r *Router) optionalRequirements(c *gin.Context) {
	role, ok := partyRole(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"requirements": r.cases.OptionalRequirements(role)})
}

func (r *Router) listRequirements(c *gin.Context) {
	role, ok := partyRole(c)
	if !ok {
		return
	}
	reqs, err := r.cases.ListRequirements(c.Request.Context(), c.Param("id"), role)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requirements": reqs})
}

func (r *Router) activateOptional(c *gin.Context) {
	role, ok := partyRole(c)
	if !ok {
		return
	}
	if err := r.cases.ActivateOptional(c.Request.Context(), c.Param("id"), role, c.Param("docId")); err != nil {
		r.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) deactivateOptional(c *gin.Context) {
	role, ok := partyRole(c)
	if !ok {
		return
	}
	if err := r.cases.DeactivateOptional(c.Request.Context(), c.Param("id"), role, c.Param("docId")); err != nil {
		r.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) addCustom(c *gin.Context) {
	role, ok := partyRole(c)
	if !ok {
		return
	}
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req, err := r.cases.AddCustom(c.Request.Context(), c.Param("id"), role, body.Title, body.Description)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (r *Router) removeCustom(c *gin.Context) {
	role, ok := partyRole(c)
	if !ok {
		return
	}
	if err := r.cases.RemoveCustom(c.Request.Context(), c.Param("id"), role, c.Param("docId")); err != nil {
		r.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) agentUpload(c *gin.Context) {
	role, ok := partyRole(c)
	if !ok {
		return
	}
	f, closeFile, ok := formFile(c)
	if !ok {
		return
	}
	defer closeFile()

	status, err := r.cases.UploadAsAgent(c.Request.Context(), c.Param("id"), role, c.Param("docId"), f)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documentId": c.Param("docId"), "reviewStatus": status})
}

func (r *Router) agentRemove(c *gin.Context) {
	role, ok := partyRole(c)
	if !ok {
		return
	}
	if err := r.cases.RemoveDocument(c.Request.Context(), c.Param("id"), role, c.Param("docId")); err != nil {
		r.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) confirm(c *gin.Context) {
	role, ok := partyRole(c)
	if !ok {
		return
	}
	if err := r.cases.Confirm(c.Request.Context(), c.Param("id"), role, c.Param("docId")); err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviewStatus": shared.ReviewConfirmed})
}

func (r *Router) requestRevision(c *gin.Context) {
	role, ok := partyRole(c)
	if !ok {
		return
	}
	var body struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := r.cases.RequestRevision(c.Request.Context(), c.Param("id"), role, c.Param("docId"), body.Note); err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviewStatus": shared.ReviewRevisionRequested})
}

func (r *Router) notifySubmitter(c *gin.Context) {
	role, ok := partyRole(c)
	if !ok {
		return
	}
	info, err := r.cases.NotifySubmitter(c.Request.Context(), c.Param("id"), role, c.Param("docId"))
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
