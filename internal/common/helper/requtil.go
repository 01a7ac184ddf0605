package helper

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	beegocontext "github.com/beego/beego/v2/server/web/context"
)

// IsJSONContentType 判断是否为 JSON 请求
func IsJSONContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.Contains(ct, "json")
}

// 邮箱格式校验（预编译正则，宽松匹配，最终以注册确认为准）
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsEmailFormat 判断邮箱格式
func IsEmailFormat(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// 默认输入保护参数
const (
	defaultJSONMaxBytes int64         = 1 << 20 // 1MB
	defaultParseTimeout time.Duration = 1 * time.Second
)

type deadlineReader struct {
	r        io.Reader
	deadline time.Time
}

func (dr *deadlineReader) Read(p []byte) (int, error) {
	if time.Now().After(dr.deadline) {
		return 0, fmt.Errorf("read timeout")
	}
	return dr.r.Read(p)
}

// jsonBodyReader 在 JSON 分支下为请求体增加大小限制与解析超时保护
func jsonBodyReader(ctx *beegocontext.Context) io.Reader {
	lr := io.LimitReader(ctx.Request.Body, defaultJSONMaxBytes)
	return &deadlineReader{r: lr, deadline: time.Now().Add(defaultParseTimeout)}
}

// GetTraceID 统一提取 trace_id：优先从中间件注入的数据取，其次从常见请求头降级
func GetTraceID(ctx *beegocontext.Context) string {
	if v := ctx.Input.GetData("trace_id"); v != nil {
		return fmt.Sprint(v)
	}
	if h := strings.TrimSpace(ctx.Input.Header("X-Trace-ID")); h != "" {
		return h
	}
	if h := strings.TrimSpace(ctx.Input.Header("Trace-Id")); h != "" {
		return h
	}
	return ""
}

// GetUserID 从认证中间件注入的数据中取当前用户ID，未登录返回0
func GetUserID(ctx *beegocontext.Context) int64 {
	v := ctx.Input.GetData("user_id")
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case string:
		id, _ := strconv.ParseInt(n, 10, 64)
		return id
	}
	return 0
}

// ParsePathID 解析路径参数中的数字ID
func ParsePathID(ctx *beegocontext.Context, name string) (int64, bool) {
	s := strings.TrimSpace(ctx.Input.Param(name))
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParsePage 解析分页参数，page 从1开始，size 限制在 [1,100]，默认 20
func ParsePage(ctx *beegocontext.Context) (limit, offset int) {
	page, _ := strconv.Atoi(strings.TrimSpace(ctx.Input.Query("page")))
	size, _ := strconv.Atoi(strings.TrimSpace(ctx.Input.Query("size")))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}

// parseByContentType 按 Content-Type 选择解析函数，减少重复 if/else 分支
func parseByContentType[T any](ctx *beegocontext.Context,
	jsonParser func(io.Reader) (T, bool, string),
	formParser func(*beegocontext.Context) (T, bool, string),
) (T, bool, string) {
	ct := ctx.Input.Header("Content-Type")
	if IsJSONContentType(ct) {
		return jsonParser(jsonBodyReader(ctx))
	}
	return formParser(ctx)
}

// -------- 报名入参 --------

// RegisterParsed 为解析后的报名入参（与控制器/服务层解耦）
// ReceiptPath 由上传接口先行产生，报名时引用
type RegisterParsed struct {
	RaffleID       int64  `json:"raffle_id"`
	ReceiptPath    string `json:"receipt_path"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ParseRegisterFromJSON 解析 JSON 到 RegisterParsed。失败返回 false 与错误消息。
func ParseRegisterFromJSON(r io.Reader) (RegisterParsed, bool, string) {
	var out RegisterParsed
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return RegisterParsed{}, false, "invalid json body"
	}
	return out, true, ""
}

// ParseRegisterFromForm 从表单读取字段并做强校验
func ParseRegisterFromForm(ctx *beegocontext.Context) (RegisterParsed, bool, string) {
	var out RegisterParsed
	ridStr := strings.TrimSpace(ctx.Input.Query("raffle_id"))
	if ridStr == "" {
		return RegisterParsed{}, false, "raffle_id required"
	}
	rid, err := strconv.ParseInt(ridStr, 10, 64)
	if err != nil || rid <= 0 {
		return RegisterParsed{}, false, "raffle_id must be positive integer"
	}
	out.RaffleID = rid
	out.ReceiptPath = strings.TrimSpace(ctx.Input.Query("receipt_path"))
	out.IdempotencyKey = strings.TrimSpace(ctx.Input.Query("idempotency_key"))
	return out, true, ""
}

// ValidateRegister 对通用字段做二次校验（适用于 JSON 与 FORM）
func ValidateRegister(in *RegisterParsed) (bool, string) {
	if in.RaffleID <= 0 {
		return false, "raffle_id required"
	}
	// 额外长度保护，避免异常超长输入
	if len(in.ReceiptPath) > 255 || len(in.IdempotencyKey) > 64 {
		return false, "invalid request"
	}
	return true, ""
}

// ParseAndValidateRegister 按 Content-Type 自动解析并做统一校验
func ParseAndValidateRegister(ctx *beegocontext.Context) (RegisterParsed, bool, string) {
	out, ok, msg := parseByContentType(ctx, ParseRegisterFromJSON, ParseRegisterFromForm)
	if !ok {
		return RegisterParsed{}, false, msg
	}
	if ok, msg := ValidateRegister(&out); !ok {
		return RegisterParsed{}, false, msg
	}
	return out, true, ""
}

// -------- 活动入参 --------

// RaffleParsed 为后台创建/更新活动的入参
type RaffleParsed struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	CoverImage         string `json:"cover_image"`
	ParticipationStart int64  `json:"participation_start"`
	ParticipationEnd   int64  `json:"participation_end"`
	ScheduledDrawTime  int64  `json:"scheduled_draw_time"`
}

func ParseRaffleFromJSON(r io.Reader) (RaffleParsed, bool, string) {
	var out RaffleParsed
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return RaffleParsed{}, false, "invalid json body"
	}
	return out, true, ""
}

func ParseRaffleFromForm(ctx *beegocontext.Context) (RaffleParsed, bool, string) {
	var out RaffleParsed
	out.Title = strings.TrimSpace(ctx.Input.Query("title"))
	out.Description = ctx.Input.Query("description")
	out.CoverImage = strings.TrimSpace(ctx.Input.Query("cover_image"))
	out.ParticipationStart, _ = strconv.ParseInt(ctx.Input.Query("participation_start"), 10, 64)
	out.ParticipationEnd, _ = strconv.ParseInt(ctx.Input.Query("participation_end"), 10, 64)
	out.ScheduledDrawTime, _ = strconv.ParseInt(ctx.Input.Query("scheduled_draw_time"), 10, 64)
	return out, true, ""
}

// ValidateRaffle 校验活动入参：标题必填，时间窗口须有序
func ValidateRaffle(in *RaffleParsed) (bool, string) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return false, "title required"
	}
	if len(in.Title) > 200 || len(in.Description) > 5000 || len(in.CoverImage) > 255 {
		return false, "invalid request"
	}
	if in.ParticipationStart < 0 || in.ParticipationEnd < 0 || in.ScheduledDrawTime < 0 {
		return false, "timestamps must be non-negative"
	}
	if in.ParticipationStart > 0 && in.ParticipationEnd > 0 && in.ParticipationEnd <= in.ParticipationStart {
		return false, "participation_end must be after participation_start"
	}
	return true, ""
}

// ParseAndValidateRaffle 按 Content-Type 自动解析并做统一校验
func ParseAndValidateRaffle(ctx *beegocontext.Context) (RaffleParsed, bool, string) {
	out, ok, msg := parseByContentType(ctx, ParseRaffleFromJSON, ParseRaffleFromForm)
	if !ok {
		return RaffleParsed{}, false, msg
	}
	if ok, msg := ValidateRaffle(&out); !ok {
		return RaffleParsed{}, false, msg
	}
	return out, true, ""
}
