package controllers

import (
	"net/http"

	"faculty-appraisal-api/services"

	"github.com/gin-gonic/gin"
)

// AttachAppraisalDocument registers a supporting file already handed to the blob store.
func AttachAppraisalDocument(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "appraisal")
	if !ok {
		return
	}

	var req services.DocumentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "validation_error"})
		return
	}

	doc, err := appraisalService.AttachDocument(c.Request.Context(), principal, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Document attached",
		"document": doc,
	})
}

// ListAppraisalDocuments lists the supporting files of an appraisal.
func ListAppraisalDocuments(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "appraisal")
	if !ok {
		return
	}

	docs, err := appraisalService.Documents(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "documents": docs, "total": len(docs)})
}
