package response

import (
	"time"

	beego "github.com/beego/beego/v2/server/web"
)

// APIResponse 统一 API 响应结构
// 所有 API 都应该返回这个结构，无论成功还是失败
type APIResponse struct {
	Code      int         `json:"code"`                // 业务错误码：0=成功，非0=失败
	Message   string      `json:"message"`             // 错误消息
	Data      interface{} `json:"data,omitempty"`      // 业务数据（失败时为 null）
	TraceID   string      `json:"trace_id,omitempty"`  // 请求追踪ID
	Timestamp int64       `json:"timestamp,omitempty"` // 响应时间戳（Unix 毫秒）
}

// 错误码定义
const (
	CodeSuccess           = 0    // 成功
	CodeBadRequest        = 1000 // 参数错误
	CodeBusinessError     = 2000 // 业务错误（通用）
	CodeDuplicateInFlight = 2001 // 重复请求进行中
	CodeDuplicateKey      = 2002 // 幂等键冲突
	CodeInvalidState      = 2003 // 状态不允许
	CodeAlreadyDrawn      = 2004 // 已开奖
	CodeNotAvailable      = 2005 // 活动不可开奖
	CodeNoParticipants    = 2006 // 无人参与
	CodeRaffleFull        = 2007 // 报名已满
	CodeWindowClosed      = 2008 // 报名窗口已关闭
	CodeAlreadyJoined     = 2009 // 重复报名
	CodeReceiptRequired   = 2010 // 缺少报名凭证
	CodeEmailTaken        = 2011 // 邮箱已注册
	CodePasswordMismatch  = 2012 // 密码错误
	CodeResetTokenInvalid = 2013 // 重置令牌无效
	CodeCaptchaMismatch   = 2014 // 验证码错误
	CodeWindowNotOpen     = 2015 // 报名尚未开始
	CodeUnauthorized      = 3000 // 未授权
	CodeInvalidToken      = 3001 // Token 无效
	CodeTokenExpired      = 3002 // Token 过期
	CodeTokenRevoked      = 3003 // Token 已撤销
	CodeForbidden         = 3009 // 禁止访问
	CodeNotFound          = 4004 // 资源不存在
	CodeRateLimitExceeded = 4000 // 请求频率超限
	CodeSystemError       = 5000 // 系统错误
)

// ErrorMessages 错误消息映射
var ErrorMessages = map[int]string{
	CodeSuccess:           "success",
	CodeBadRequest:        "参数错误",
	CodeBusinessError:     "业务处理失败",
	CodeDuplicateInFlight: "重复请求进行中，请稍后重试",
	CodeDuplicateKey:      "重复的请求",
	CodeInvalidState:      "当前状态不允许此操作",
	CodeAlreadyDrawn:      "该活动已开奖",
	CodeNotAvailable:      "活动当前不可开奖",
	CodeNoParticipants:    "暂无参与者，无法开奖",
	CodeRaffleFull:        "报名人数已满",
	CodeWindowClosed:      "报名已截止",
	CodeAlreadyJoined:     "您已报名该活动",
	CodeReceiptRequired:   "请上传购买凭证",
	CodeEmailTaken:        "该邮箱已注册",
	CodePasswordMismatch:  "邮箱或密码错误",
	CodeResetTokenInvalid: "重置链接无效或已过期",
	CodeCaptchaMismatch:   "验证码错误",
	CodeWindowNotOpen:     "报名尚未开始",
	CodeUnauthorized:      "未授权",
	CodeInvalidToken:      "登录凭证无效",
	CodeTokenExpired:      "登录已过期，请重新登录",
	CodeTokenRevoked:      "登录已失效",
	CodeForbidden:         "无权访问",
	CodeNotFound:          "资源不存在",
	CodeRateLimitExceeded: "请求过于频繁，请稍后重试",
	CodeSystemError:       "系统繁忙，请稍后重试",
}

func getErrorMessage(code int) string {
	if msg, ok := ErrorMessages[code]; ok {
		return msg
	}
	return ErrorMessages[CodeBusinessError]
}

// Success 成功响应
func Success(c *beego.Controller, data interface{}, traceID string) {
	c.Data["json"] = APIResponse{
		Code:      CodeSuccess,
		Message:   ErrorMessages[CodeSuccess],
		Data:      data,
		TraceID:   traceID,
		Timestamp: time.Now().UnixMilli(),
	}
	c.ServeJSON()
}

// Error 错误响应（使用预定义的错误消息）
//
// 示例：
//
//	response.Error(c, 409, response.CodeAlreadyDrawn, traceID)
func Error(c *beego.Controller, httpStatus int, code int, traceID string) {
	c.Ctx.Output.SetStatus(httpStatus)
	c.Data["json"] = APIResponse{
		Code:      code,
		Message:   getErrorMessage(code),
		Data:      nil,
		TraceID:   traceID,
		Timestamp: time.Now().UnixMilli(),
	}
	c.ServeJSON()
}

// ErrorWithMessage 错误响应（使用自定义错误消息）
func ErrorWithMessage(c *beego.Controller, httpStatus int, code int, message string, traceID string) {
	c.Ctx.Output.SetStatus(httpStatus)
	c.Data["json"] = APIResponse{
		Code:      code,
		Message:   message,
		Data:      nil,
		TraceID:   traceID,
		Timestamp: time.Now().UnixMilli(),
	}
	c.ServeJSON()
}

// BadRequest 参数错误响应（HTTP 400）
func BadRequest(c *beego.Controller, message string, traceID string) {
	ErrorWithMessage(c, 400, CodeBadRequest, message, traceID)
}

// Conflict 资源冲突响应（HTTP 409）
func Conflict(c *beego.Controller, code int, traceID string) {
	Error(c, 409, code, traceID)
}

// NotFound 资源不存在响应（HTTP 404）
func NotFound(c *beego.Controller, message string, traceID string) {
	ErrorWithMessage(c, 404, CodeNotFound, message, traceID)
}

// Unauthorized 未授权响应（HTTP 401）
func Unauthorized(c *beego.Controller, code int, traceID string) {
	Error(c, 401, code, traceID)
}

// Forbidden 禁止访问响应（HTTP 403）
func Forbidden(c *beego.Controller, traceID string) {
	Error(c, 403, CodeForbidden, traceID)
}

// InternalError 系统错误响应（HTTP 500）
func InternalError(c *beego.Controller, traceID string) {
	Error(c, 500, CodeSystemError, traceID)
}

// InternalErrorWithMessage 系统错误响应（HTTP 500，自定义消息）
// 注意：生产环境不应该暴露详细的错误信息，应该记录到日志
func InternalErrorWithMessage(c *beego.Controller, message string, traceID string) {
	ErrorWithMessage(c, 500, CodeSystemError, message, traceID)
}
