package ginx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jimyag/vdisnap/pkg/apierror"
)

const (
	// RequestIDHeader 请求 ID 的 HTTP 头
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "ginx.request_id"
)

// RequestID 为每个请求分配请求 ID，客户端带了就沿用
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set(requestIDKey, id)
		ctx.Header(RequestIDHeader, id)
		ctx.Next()
	}
}

// GetRequestID 返回当前请求的请求 ID，没有经过 RequestID 中间件时返回空
func GetRequestID(ctx *gin.Context) string {
	return ctx.GetString(requestIDKey)
}

// renderResponse 渲染响应
func renderResponse(ctx *gin.Context, response any) {
	if response == nil {
		ctx.Status(http.StatusNoContent)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// renderError 渲染错误响应
// 错误链中有 *apierror.Error 时使用它的状态码和错误码
// 否则使用 statusCode 和默认错误码
func renderError(ctx *gin.Context, statusCode int, err error) {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		code := apierror.ErrInternalError.Code
		if statusCode == http.StatusBadRequest {
			code = apierror.ErrInvalidParameter.Code
		}
		apiErr = apierror.NewErrorWithRawAndStatus(code, err.Error(), statusCode, err)
	}
	if apiErr.HTTPStatus > 0 {
		statusCode = apiErr.HTTPStatus
	}

	_ = ctx.Error(err)
	ctx.JSON(statusCode, apierror.NewErrorResponse(GetRequestID(ctx), apiErr))
}
