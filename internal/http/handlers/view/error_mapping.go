package view

import (
	"errors"

	"github.com/jiancai-next/internal/backend"
	"github.com/jiancai-next/internal/gueststore"
	"github.com/jiancai-next/internal/http/response"
	"github.com/jiancai-next/internal/store"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

var cartErrorRules = []mappedHandlerError{
	{target: store.ErrQuantityInvalid, code: response.CodeBadRequest, msg: store.ErrQuantityInvalid.Error()},
	{target: gueststore.ErrQuantityInvalid, code: response.CodeBadRequest, msg: gueststore.ErrQuantityInvalid.Error()},
	{target: gueststore.ErrItemNotFound, code: response.CodeNotFound, msg: "cart item not found"},
	{target: backend.ErrUnauthorized, code: response.CodeUnauthorized, msg: "session expired or invalid"},
	{target: backend.ErrBackendRejected, code: response.CodeBadRequest, msg: "backend rejected request"},
	{target: backend.ErrRequestFailed, code: response.CodeUpstream, msg: "backend unreachable"},
	{target: backend.ErrResponseInvalid, code: response.CodeUpstream, msg: "backend response invalid"},
}

func respondCartError(c *gin.Context, err error) {
	for _, rule := range cartErrorRules {
		if errors.Is(err, rule.target) {
			response.Error(c, rule.code, rule.msg)
			return
		}
	}
	response.Error(c, response.CodeInternal, err.Error())
}
