package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Abdullah-Shahriar/UIU-Hub/pkg/response"
)

// MustGetParam 从路径参数中安全提取非空值。
// 参数为空时写入 400 响应并返回 false，调用方应直接 return。
func MustGetParam(c *gin.Context, key, label string) (string, bool) {
	v := strings.TrimSpace(c.Param(key))
	if v == "" {
		response.BadRequest(c, 10001, label+"不能为空")
		return "", false
	}
	return v, true
}

// MustGetSessionID 提取规划会话 ID（路径参数 :sid）
func MustGetSessionID(c *gin.Context) (string, bool) {
	return MustGetParam(c, "sid", "会话ID")
}

// isBodyTooLarge 判断错误是否由 BodyLimit 中间件的 MaxBytesReader 触发
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "request body too large")
}
