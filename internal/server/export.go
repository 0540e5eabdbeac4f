package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *handlers) exportMatrix(c *gin.Context) {
	b, err := h.Export.ExportMatrixXLSX(c.Request.Context(), scopeOf(c), c.Query("building"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="matrix.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, b)
}
