package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/verification"
)

func (h *handlers) createCampaign(c *gin.Context) {
	var req verification.CreateCampaignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	campaign, err := h.Verification.CreateCampaign(c.Request.Context(), scopeOf(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

func (h *handlers) listCampaigns(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.badRequest(c, "year must be a number")
			return
		}
		year = n
	}
	campaigns, err := h.Verification.ListCampaigns(c.Request.Context(), scopeOf(c), year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns, "total": len(campaigns)})
}

func (h *handlers) getCampaign(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	campaign, err := h.Verification.GetCampaign(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

type campaignStatusRequest struct {
	Status string `json:"status"`
}

func (h *handlers) updateCampaign(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req campaignStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	campaign, err := h.Verification.UpdateCampaignStatus(c.Request.Context(), scopeOf(c), id, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

type generateRequest struct {
	Building string `json:"building"`
}

func (h *handlers) generateChecks(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req generateRequest
	// The body is optional.
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	if req.Building == "" {
		req.Building = c.Query("building")
	}
	res, err := h.Verification.GenerateChecks(c.Request.Context(), id, scopeOf(c), req.Building)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) listChecks(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	zoneID, ok := h.uuidQuery(c, "zone_id")
	if !ok {
		return
	}
	f := entity.CheckFilter{
		Status:   constants.CheckStatus(c.Query("status")),
		Building: c.Query("building"),
		ZoneID:   zoneID,
	}
	checks, err := h.Verification.ListChecks(c.Request.Context(), scopeOf(c), id, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checks": checks, "total": len(checks)})
}

func (h *handlers) getCheck(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	check, err := h.Verification.GetCheck(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *handlers) updateResults(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req verification.BatchUpdate
	if !h.bindJSON(c, &req) {
		return
	}
	check, summary, err := h.Verification.BatchUpdate(c.Request.Context(), scopeOf(c), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"check": check, "summary": summary})
}
