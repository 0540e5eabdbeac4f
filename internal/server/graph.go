package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/repository"
)

// ZoneRequest is the body of zone create and update.
type ZoneRequest struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Building      string `json:"building"`
	Floor         string `json:"floor"`
	AccessPoint   string `json:"access_point"`
	DetectorRange string `json:"detector_range"`
	DetectorKind  string `json:"detector_kind"`
}

func (r ZoneRequest) zone(scope entity.Scope) (entity.Zone, error) {
	v := common.NewValidator()
	v.Field("code", strings.TrimSpace(r.Code), common.Required, common.Code, common.MaxLength(50))
	v.Field("name", r.Name, common.MaxLength(200))
	v.Field("detector_kind", r.DetectorKind, common.OneOf(
		string(constants.DetectorSmoke), string(constants.DetectorManual), string(constants.DetectorFalseCeiling)))
	if err := v.Err(); err != nil {
		return entity.Zone{}, err
	}
	return entity.Zone{
		Scope:         scope,
		Code:          strings.TrimSpace(r.Code),
		Name:          r.Name,
		Building:      r.Building,
		Floor:         r.Floor,
		AccessPoint:   r.AccessPoint,
		DetectorRange: r.DetectorRange,
		DetectorKind:  constants.DetectorKind(r.DetectorKind),
	}, nil
}

type zoneDetail struct {
	entity.Zone
	Detectors []int         `json:"detectors"`
	Links     []entity.Link `json:"links"`
}

func (h *handlers) listZones(c *gin.Context) {
	docID, ok := h.uuidQuery(c, "document_id")
	if !ok {
		return
	}
	zones, err := h.Zones.List(c.Request.Context(), scopeOf(c), repository.ZoneFilter{
		Building:   c.Query("building"),
		Floor:      c.Query("floor"),
		DocumentID: docID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"zones": zones, "total": len(zones)})
}

func (h *handlers) createZone(c *gin.Context) {
	var req ZoneRequest
	if !h.bindJSON(c, &req) {
		return
	}
	z, err := req.zone(scopeOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	created, err := h.Zones.Create(c.Request.Context(), z)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) getZone(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	scope := scopeOf(c)
	z, err := h.Zones.Get(c.Request.Context(), scope, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	links, err := h.Links.List(c.Request.Context(), scope, entity.LinkFilter{ZoneID: id})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, zoneDetail{Zone: z, Detectors: z.Detectors(), Links: links})
}

func (h *handlers) updateZone(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req ZoneRequest
	if !h.bindJSON(c, &req) {
		return
	}
	z, err := req.zone(scopeOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	z.ID = id
	updated, err := h.Zones.Update(c.Request.Context(), z)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handlers) deleteZone(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.Zones.Delete(c.Request.Context(), scopeOf(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EquipmentRequest is the body of equipment create and update.
type EquipmentRequest struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	Location       string `json:"location"`
	ExternalSystem string `json:"external_system"`
	ExternalID     string `json:"external_id"`
}

func (r EquipmentRequest) equipment(scope entity.Scope) (entity.Equipment, error) {
	v := common.NewValidator()
	v.Field("code", strings.TrimSpace(r.Code), common.Required, common.Code, common.MaxLength(50))
	v.Field("name", r.Name, common.MaxLength(200))
	v.Field("type", r.Type, common.OneOf(constants.EquipmentTypesAsStrings()...))
	if err := v.Err(); err != nil {
		return entity.Equipment{}, err
	}
	t := constants.EquipmentType(r.Type)
	if t == "" {
		t = constants.EquipmentOther
	}
	return entity.Equipment{
		Scope:          scope,
		Code:           strings.TrimSpace(r.Code),
		Name:           r.Name,
		Type:           t,
		Location:       r.Location,
		ExternalSystem: r.ExternalSystem,
		ExternalID:     r.ExternalID,
	}, nil
}

func (h *handlers) listEquipment(c *gin.Context) {
	items, err := h.Equipment.List(c.Request.Context(), scopeOf(c), repository.EquipmentFilter{
		Type:           constants.EquipmentType(c.Query("type")),
		ExternalSystem: c.Query("external_system"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"equipment": items, "total": len(items)})
}

func (h *handlers) createEquipment(c *gin.Context) {
	var req EquipmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	e, err := req.equipment(scopeOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	created, err := h.Equipment.Create(c.Request.Context(), e)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) getEquipment(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	scope := scopeOf(c)
	e, err := h.Equipment.Get(c.Request.Context(), scope, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	links, err := h.Links.List(c.Request.Context(), scope, entity.LinkFilter{EquipmentID: id})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"equipment": e, "links": links})
}

func (h *handlers) updateEquipment(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req EquipmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	e, err := req.equipment(scopeOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	e.ID = id
	updated, err := h.Equipment.Update(c.Request.Context(), e)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handlers) deleteEquipment(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.Equipment.Delete(c.Request.Context(), scopeOf(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LinkRequest addresses a link by its composite key. Delete reads it from
// the query string when no JSON body is sent.
type LinkRequest struct {
	ZoneCode      string `json:"zone_code" form:"zone_code"`
	EquipmentCode string `json:"equipment_code" form:"equipment_code"`
	AlarmLevel    int    `json:"alarm_level" form:"alarm_level"`
	Action        string `json:"action" form:"action"`
}

func (r LinkRequest) validate() (constants.AlarmLevel, constants.ActionType, error) {
	v := common.NewValidator()
	v.Field("zone_code", strings.TrimSpace(r.ZoneCode), common.Required)
	v.Field("equipment_code", strings.TrimSpace(r.EquipmentCode), common.Required)
	level := constants.AlarmLevel(r.AlarmLevel)
	if !level.Valid() {
		v.Field("alarm_level", r.AlarmLevel, func(field string, value interface{}) *common.ValidationError {
			return &common.ValidationError{Field: field, Value: value, Message: "must be 1 or 2"}
		})
	}
	action := constants.ActionActivate
	if r.Action != "" {
		a, ok := constants.ParseActionType(r.Action)
		if !ok {
			v.Field("action", r.Action, func(field string, value interface{}) *common.ValidationError {
				return &common.ValidationError{Field: field, Value: value, Message: "unknown action"}
			})
		}
		action = a
	}
	return level, action, v.Err()
}

func (h *handlers) listLinks(c *gin.Context) {
	zoneID, ok := h.uuidQuery(c, "zone_id")
	if !ok {
		return
	}
	equipmentID, ok := h.uuidQuery(c, "equipment_id")
	if !ok {
		return
	}
	var level constants.AlarmLevel
	if raw := c.Query("alarm_level"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !constants.AlarmLevel(n).Valid() {
			h.badRequest(c, "alarm_level must be 1 or 2")
			return
		}
		level = constants.AlarmLevel(n)
	}
	links, err := h.Links.List(c.Request.Context(), scopeOf(c), entity.LinkFilter{
		ZoneID: zoneID, EquipmentID: equipmentID, AlarmLevel: level,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links, "total": len(links)})
}

func (h *handlers) createLink(c *gin.Context) {
	var req LinkRequest
	if !h.bindJSON(c, &req) {
		return
	}
	level, action, err := req.validate()
	if err != nil {
		h.fail(c, err)
		return
	}
	link, created, err := h.Links.CreateByCodes(c.Request.Context(), scopeOf(c), req.ZoneCode, req.EquipmentCode, level, action)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, link)
}

func (h *handlers) deleteLink(c *gin.Context) {
	var req LinkRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "invalid link key: "+err.Error())
		return
	}
	level, _, err := req.validate()
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Links.DeleteByCodes(c.Request.Context(), scopeOf(c), req.ZoneCode, req.EquipmentCode, level); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
