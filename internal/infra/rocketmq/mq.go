package rocketmq

import (
	"context"
	"strings"
	"sync"
	"time"

	rmq "github.com/apache/rocketmq-clients/golang/v5"
	"github.com/apache/rocketmq-clients/golang/v5/credentials"

	"roulette-server/common/logger"
	"roulette-server/internal/config"

	"go.uber.org/zap"
)

// Publisher 对外广播事件的最小门面（公共动态流：新活动、中奖公告等）
type Publisher interface {
	Publish(topic string, body []byte) error
}

var (
	initOnce sync.Once
	enabled  bool
	prod     rmq.Producer
	pub      Publisher
)

// Enabled 返回 MQ 是否已配置并成功启动
func Enabled() bool { initOnce.Do(initMQ); return enabled }

// PublisherInstance 返回当前 Publisher（未启用时为 stub）
func PublisherInstance() Publisher {
	initOnce.Do(initMQ)
	if pub == nil {
		pub = &stubPublisher{}
	}
	return pub
}

// FeedTopic 返回公共动态流 topic（未配置时为空）
func FeedTopic() string {
	cfg := config.Get()
	if cfg == nil {
		return ""
	}
	return strings.TrimSpace(cfg.RocketMQ.TopicFeed)
}

type rmqPublisher struct{ p rmq.Producer }

func (r *rmqPublisher) Publish(topic string, body []byte) error {
	if r.p == nil {
		return nil
	}
	msg := &rmq.Message{Topic: topic, Body: body}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := r.p.Send(ctx, msg)
	return err
}

// MQ 未启用时丢弃消息（站内通知不受影响）
type stubPublisher struct{}

func (s *stubPublisher) Publish(topic string, body []byte) error {
	logger.Warn("[mq disabled] drop message", zap.String("topic", topic))
	return nil
}

func initMQ() {
	// SDK 默认写文件日志，重置为控制台
	rmq.ResetLogger()

	cfg := config.Get()
	if cfg == nil || strings.TrimSpace(cfg.RocketMQ.Endpoint) == "" {
		enabled = false
		pub = &stubPublisher{}
		return
	}

	// endpoint 清洗：去 scheme，多个地址取第一个
	endpoint := strings.TrimSpace(cfg.RocketMQ.Endpoint)
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")
	if idx := strings.IndexAny(endpoint, ",;"); idx > 0 {
		endpoint = strings.TrimSpace(endpoint[:idx])
	}

	ak := strings.TrimSpace(cfg.RocketMQ.AccessKey)
	sk := strings.TrimSpace(cfg.RocketMQ.SecretKey)
	if ak == "" || sk == "" {
		// 缺凭证直接禁用，避免 SDK 在签名阶段空指针
		enabled = false
		pub = &stubPublisher{}
		logger.Warn("rocketmq disabled: missing access/secret key while endpoint present")
		return
	}

	mqCfg := &rmq.Config{Endpoint: endpoint}
	mqCfg.Credentials = &credentials.SessionCredentials{AccessKey: ak, AccessSecret: sk}

	var opts []rmq.ProducerOption
	if topic := FeedTopic(); topic != "" {
		opts = append(opts, rmq.WithTopics(topic))
	}

	p, err := rmq.NewProducer(mqCfg, opts...)
	if err != nil {
		logger.Error("rocketmq: producer init failed", zap.Error(err))
		enabled = false
		pub = &stubPublisher{}
		return
	}

	// 异步启动，避免阻塞进程启动
	startDone := make(chan error, 1)
	go func() {
		startDone <- p.Start()
	}()

	select {
	case err := <-startDone:
		if err != nil {
			logger.Warn("rocketmq: producer start failed (will use stub publisher)", zap.Error(err))
			enabled = false
			pub = &stubPublisher{}
			return
		}
		prod = p
		pub = &rmqPublisher{p: p}
		enabled = true
		logger.Info("rocketmq enabled", zap.String("endpoint", endpoint))
	case <-time.After(2 * time.Second):
		logger.Warn("rocketmq: producer start timeout (will use stub publisher, messages will be dropped)")
		enabled = false
		pub = &stubPublisher{}
	}
}
