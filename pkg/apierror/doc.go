// Package apierror 提供 AWS 风格的错误类型，用于 HTTP API 的统一错误处理
//
// 错误响应格式：
//
//	{
//	    "errors": [
//	        {
//	            "code": "InvalidVM.DiskCount",
//	            "message": "vm vm-1 has 2 disks, expected exactly 1"
//	        }
//	    ],
//	    "requestID": "ea966190-f9aa-478e-9ede-example"
//	}
//
// 使用示例：
//
//	// 包装预定义的错误，保留错误码和 HTTP 状态码
//	err := apierror.WrapError(apierror.ErrInvalidVMDiskCount, "vm vm-1 has 2 disks", rawErr)
//
//	// 在 gin 中使用
//	c.JSON(err.HTTPStatus, apierror.NewErrorResponse(requestID, err))
package apierror
