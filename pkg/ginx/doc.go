// Package ginx 提供 gin 框架的 handler 适配器，支持自动参数绑定和响应处理
//
// 请求和响应都使用 JSON，错误统一渲染成 apierror.ErrorResponse。
//
// 支持的 handler 函数签名：
//
//	// 有参数，有返回值，有 error
//	func(c *gin.Context, args *Args) (resp, error)
//
//	// 无参数，有返回值，有 error
//	func(c *gin.Context) (resp, error)
//
// 使用示例：
//
//	router := gin.New()
//	router.Use(ginx.RequestID())
//	router.POST("/create-snapshot", ginx.Adapt5(api.CreateSnapshot))
package ginx
