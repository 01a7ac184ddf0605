package helper

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/shopspring/decimal"
)

// TrimDecimal 金额统一输出两位小数字符串
func TrimDecimal(val decimal.Decimal) string {
	return val.StringFixed(2)
}

// RandToken 生成 n 字节的十六进制随机串（文件名、重置令牌等）
func RandToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}

// CtypeDigit 判断字符串是否全为数字
func CtypeDigit(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeEmail 邮箱统一小写去空白后比较/入库
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
