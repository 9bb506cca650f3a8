// controllers/srv.go
package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"Gin_postgres_redis_lending_tracker/app"
	"Gin_postgres_redis_lending_tracker/db"
	"Gin_postgres_redis_lending_tracker/session"

	"github.com/gin-gonic/gin"
)

type Srv struct {
	Repo      *db.Repo
	AppSess   *session.AppSessionStore
	WebOrigin string
	Cfg       app.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:      db.NewRepo(a.DB),
		AppSess:   a.AppSessions(),
		WebOrigin: a.Config.WebOrigin,
		Cfg:       a.Config,
	}
}

// --- helpers ---

// 统一设置业务会话 Cookie
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

// writeErr 把核心层的错误分类翻译成 HTTP 状态码。
// 一致性错误和没归类的错误对外只说 "internal error"，细节只进日志。
func writeErr(c *gin.Context, err error) {
	var (
		conflict  *db.ConflictError
		forbidden *db.ForbiddenError
		integrity *db.IntegrityError
	)
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "not found"})
	case errors.As(err, &conflict):
		body := app.H{"error": conflict.Reason}
		if conflict.ItemCount > 0 {
			body["itemCount"] = conflict.ItemCount
		}
		c.JSON(http.StatusConflict, body)
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, app.H{"error": forbidden.Reason})
	case errors.As(err, &integrity):
		log.Printf("[INTEGRITY] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, app.H{"error": "internal error"})
	default:
		// 驱动/DSN 之类的内部细节不进响应体
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, app.H{"error": "internal error"})
	}
}

// actorID 取鉴权中间件放进来的操作者
func actorID(c *gin.Context) (string, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return "", false
	}
	uid, _ := v.(string)
	return uid, uid != ""
}
