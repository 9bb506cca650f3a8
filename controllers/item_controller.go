// controllers/item_controller.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"Gin_postgres_redis_lending_tracker/app"
	"Gin_postgres_redis_lending_tracker/db"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ItemController struct{ *Srv }

func NewItemController(s *Srv) *ItemController { return &ItemController{Srv: s} }

// 管理员创建一件物品
func (ic *ItemController) CreateItem(c *gin.Context) {
	var in struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		CategoryID  string `json:"categoryId" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	it, err := ic.Repo.CreateItem(c.Request.Context(), db.CreateItemInput{
		Name:        in.Name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

// 列表（含当前借用人）
func (ic *ItemController) ListItems(c *gin.Context) {
	q := db.ItemsQuery{
		Q:          c.Query("q"),
		Status:     c.Query("status"), // "", "available", "lent", "maintenance"
		CategoryID: c.Query("categoryId"),
	}
	if v := c.DefaultQuery("page", "1"); v != "" {
		q.Page, _ = strconv.Atoi(v)
	}
	if v := c.DefaultQuery("size", "20"); v != "" {
		q.Size, _ = strconv.Atoi(v)
	}

	res, err := ic.Repo.ListItemsWithOpenLog(c.Request.Context(), q)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"total": res.Total, "items": res.Items})
}

func (ic *ItemController) GetItem(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	it, err := ic.Repo.FindItemByID(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (ic *ItemController) UpdateItem(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	var in struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		CategoryID  *string `json:"categoryId"`
		Status      *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	it, err := ic.Repo.UpdateItem(c.Request.Context(), id, db.UpdateItemInput{
		Name:        in.Name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Status:      in.Status,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (ic *ItemController) DeleteItem(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	if err := ic.Repo.DeleteItem(c.Request.Context(), id); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// 借出。普通用户借给自己；管理员可在 body 里指定 userId 替人登记。
func (ic *ItemController) Lend(c *gin.Context) {
	itemID := c.Param("id")
	if _, err := uuid.Parse(itemID); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}

	var in struct {
		UserID         string `json:"userId"`
		ConditionNotes string `json:"conditionNotes"`
	}
	_ = c.ShouldBindJSON(&in)

	borrowerID := uid
	if in.UserID != "" && in.UserID != uid {
		if isAdmin, _ := c.Get("isAdmin"); isAdmin != true {
			c.JSON(http.StatusForbidden, app.H{"error": "only admins can lend on behalf of others"})
			return
		}
		borrowerID = in.UserID
	}

	entry, err := ic.Repo.LendItem(c.Request.Context(), itemID, borrowerID, in.ConditionNotes)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// 归还（按物品归还，不是按台账 ID）
func (ic *ItemController) Return(c *gin.Context) {
	itemID := c.Param("id")
	if _, err := uuid.Parse(itemID); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	var in struct {
		ReturnConditionNotes string `json:"returnConditionNotes"`
	}
	_ = c.ShouldBindJSON(&in)

	entry, err := ic.Repo.ReturnItem(c.Request.Context(), itemID, in.ReturnConditionNotes)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// 单件物品的借还历史 ?from=&to=（RFC3339，闭区间）
func (ic *ItemController) History(c *gin.Context) {
	itemID := c.Param("id")
	if _, err := uuid.Parse(itemID); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "invalid from date"})
			return
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "invalid to date"})
			return
		}
		to = &t
	}

	logs, err := ic.Repo.ItemHistory(c.Request.Context(), itemID, from, to)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"history": logs})
}

// 全局借还记录 ?status=open|returned&userId=&itemId=
func (ic *ItemController) ListLendingLogs(c *gin.Context) {
	ls, err := ic.Repo.ListLendingLogs(c.Request.Context(),
		c.Query("userId"), c.Query("itemId"), c.Query("status"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": ls})
}
