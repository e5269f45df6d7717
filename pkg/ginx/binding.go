package ginx

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

// bindArgs 绑定请求参数到 args 结构体
// 优先级：JSON Body > URI 参数 > Query 参数
// 空 body 不算错误，参数可以全部来自 query
func bindArgs(ctx *gin.Context, args any) error {
	if ctx.Request.Body != nil && ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(args); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}

	if len(ctx.Params) > 0 {
		if err := ctx.ShouldBindUri(args); err != nil {
			return err
		}
	}

	if len(ctx.Request.URL.RawQuery) > 0 {
		return ctx.ShouldBindQuery(args)
	}
	return nil
}
