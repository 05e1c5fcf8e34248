package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// RunCompletedEvent 入库成功后发送
type RunCompletedEvent struct {
	RunID      string `json:"run_id"`
	Bookmaker  string `json:"bookmaker"`
	Campaign   string `json:"campaign"`
	RunDate    string `json:"run_date"`
	Links      int    `json:"links"`
	Accounts   int    `json:"accounts"`
	CPACount   int    `json:"cpa_count"`
	PartnerCPA int    `json:"partner_cpa"`
}

// BillingClosedEvent 每个 partner 出账后发送
type BillingClosedEvent struct {
	WithdrawalID     uint64  `json:"withdrawal_id"`
	PartnerID        uint64  `json:"partner_id"`
	Month            string  `json:"month"`
	Status           string  `json:"status"`
	CurrencyLocal    string  `json:"currency_local"`
	FixedIncomeLocal float64 `json:"fixed_income_local"`
}

// EventPublisher 运行事件发布；数据库是唯一事实来源，发送失败只记日志
type EventPublisher interface {
	RunCompleted(ctx context.Context, e RunCompletedEvent)
	BillingClosed(ctx context.Context, e BillingClosedEvent)
	Close() error
}

// NoopPublisher 未配置 kafka 时使用
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (NoopPublisher) RunCompleted(context.Context, RunCompletedEvent)   {}
func (NoopPublisher) BillingClosed(context.Context, BillingClosedEvent) {}
func (NoopPublisher) Close() error                                      { return nil }

// KafkaPublisher 写入 kafka，key 为 campaign / partner 保证同一对象有序
type KafkaPublisher struct {
	writer       *kafka.Writer
	runTopic     string
	billingTopic string
	logger       *logrus.Logger
}

func NewKafkaPublisher(brokers []string, runTopic, billingTopic string, logger *logrus.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka至少需要一个broker")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
			WriteTimeout: 10 * time.Second,
		},
		runTopic:     runTopic,
		billingTopic: billingTopic,
		logger:       logger,
	}, nil
}

func (p *KafkaPublisher) RunCompleted(ctx context.Context, e RunCompletedEvent) {
	p.publish(ctx, p.runTopic, e.Bookmaker+"/"+e.Campaign, e)
}

func (p *KafkaPublisher) BillingClosed(ctx context.Context, e BillingClosedEvent) {
	p.publish(ctx, p.billingTopic, fmt.Sprintf("partner-%d", e.PartnerID), e)
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, key string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.WithError(err).Error("序列化事件失败")
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: body,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{"topic": topic, "key": key}).Warn("发送kafka事件失败")
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
