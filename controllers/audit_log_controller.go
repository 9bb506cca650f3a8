package controllers

import (
	"net/http"
	"strconv"

	"Gin_postgres_redis_lending_tracker/app"

	"github.com/gin-gonic/gin"
)

type AuditLogController struct{ *Srv }

func NewAuditLogController(s *Srv) *AuditLogController { return &AuditLogController{Srv: s} }

// GET /api/audit-logs?action=&entityType=&page=&size=
// 只读：审计台账由各管理操作在自己的事务里追加，这里永远不写。
func (alc *AuditLogController) ListAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	logs, total, err := alc.Repo.ListAuditLogs(c.Request.Context(),
		c.Query("action"), c.Query("entityType"), page, size)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"total": total, "logs": logs})
}
