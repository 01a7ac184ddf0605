package auth

import (
	"net/http"
	"strconv"
	"strings"

	"roulette-server/common"
	"roulette-server/common/helper"
	"roulette-server/common/logger"
	"roulette-server/internal/config"

	"go.uber.org/zap"
)

// SocialIdentity 第三方 userinfo 端点返回的身份信息
type SocialIdentity struct {
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
}

// VerifySocialToken 用客户端提交的 access_token 调 provider 的 userinfo 端点，
// 成功即认为令牌有效并返回第三方身份。不在服务端走授权码交换，
// 令牌由前端 OAuth 流程获得。
func VerifySocialToken(provider, accessToken string) (*SocialIdentity, error) {
	cfg := config.Get()
	if cfg == nil {
		return nil, ErrSocialVerifyFail
	}
	p, ok := cfg.Auth.Social.Providers[strings.ToLower(provider)]
	if !ok {
		return nil, ErrUnknownProvider
	}
	if p.UserinfoURL == "" {
		return nil, ErrProviderDisabled
	}

	respBytes, statusCode, err := helper.HttpDoTimeout(nil, "GET", p.UserinfoURL, map[string]string{
		"Authorization": "Bearer " + accessToken,
		"Accept":        "application/json",
	}, helper.SocialVerifyTimeout)
	if err != nil {
		logger.Warn("social userinfo request failed",
			zap.String("provider", provider), zap.Error(err))
		return nil, ErrSocialVerifyFail
	}
	if statusCode != http.StatusOK {
		logger.Warn("social userinfo rejected",
			zap.String("provider", provider), zap.Int("status", statusCode))
		return nil, ErrSocialVerifyFail
	}

	var body map[string]interface{}
	if err := common.JsonUnmarshal(respBytes, &body); err != nil {
		return nil, ErrSocialVerifyFail
	}

	id := stringField(body, p.IDField)
	if id == "" {
		return nil, ErrSocialVerifyFail
	}
	email := stringField(body, p.EmailField)
	if email == "" {
		return nil, ErrSocialEmailEmpty
	}

	return &SocialIdentity{
		Provider:       strings.ToLower(provider),
		ProviderUserID: id,
		Email:          strings.ToLower(email),
		Name:           stringField(body, p.NameField),
	}, nil
}

// stringField 容忍 userinfo 返回数值型ID（如部分平台的 id 字段）
func stringField(m map[string]interface{}, key string) string {
	if key == "" {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}
