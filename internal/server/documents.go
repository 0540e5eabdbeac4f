package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
)

type uploadResponse struct {
	DocumentID   string          `json:"document_id"`
	Deduplicated bool            `json:"deduplicated"`
	Document     entity.Document `json:"document"`
}

func (h *handlers) uploadDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, "multipart field \"file\" is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, common.WrapError(err, "open upload"))
		return
	}
	defer func() { _ = f.Close() }()

	scope := scopeOf(c)
	doc, created, err := h.Store.Save(c.Request.Context(), scope, fh.Filename, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, uploadResponse{DocumentID: doc.ID.String(), Deduplicated: !created, Document: doc})
}

func (h *handlers) getDocument(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	scope := scopeOf(c)
	doc, err := h.Documents.Get(c.Request.Context(), scope, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	jobs, err := h.JobHistory.ListByDocument(c.Request.Context(), scope, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc, "jobs": jobs})
}

func (h *handlers) parseDocument(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	job, err := h.Jobs.Submit(c.Request.Context(), id, scopeOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
}

func (h *handlers) getJob(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	job, err := h.Jobs.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	// Jobs of another tenant are reported as missing.
	if job.Scope != scopeOf(c) {
		h.fail(c, common.NotFoundf("job %s not found", id))
		return
	}
	c.JSON(http.StatusOK, job)
}
