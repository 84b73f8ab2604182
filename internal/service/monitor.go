package service

import (
	"sync"
	"time"
)

// Monitor 监控服务，用于统计结算结果和基础设施错误
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	DBErrors    int64
	MQErrors    int64
	CacheErrors int64

	// 结算统计
	CheckoutRequests int64
	CheckoutSuccess  int64
	CheckoutFailures map[string]int64
	EventsPublished  int64
	EventsConsumed   int64
	EventsRejected   int64

	// 时间统计
	LastDBError      time.Time
	LastMQError      time.Time
	LastCacheError   time.Time
	LastCheckoutTime time.Time
}

var globalMonitor = &Monitor{CheckoutFailures: map[string]int64{}}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordMQError 记录MQ错误
func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
	m.LastMQError = time.Now()
}

// RecordCacheError 记录Redis缓存错误
func (m *Monitor) RecordCacheError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheErrors++
	m.LastCacheError = time.Now()
}

// RecordCheckoutRequest 记录结算请求
func (m *Monitor) RecordCheckoutRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckoutRequests++
	m.LastCheckoutTime = time.Now()
}

// RecordCheckoutSuccess 记录结算成功
func (m *Monitor) RecordCheckoutSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckoutSuccess++
}

// RecordCheckoutFailure 按失败类型计数
func (m *Monitor) RecordCheckoutFailure(kind CheckoutErrorKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CheckoutFailures == nil {
		m.CheckoutFailures = map[string]int64{}
	}
	m.CheckoutFailures[kind.String()]++
}

// RecordEventPublished 记录事件发送成功
func (m *Monitor) RecordEventPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EventsPublished++
}

// RecordEventConsumed 记录消费者处理结果
func (m *Monitor) RecordEventConsumed(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.EventsConsumed++
	} else {
		m.EventsRejected++
	}
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.CheckoutRequests > 0 {
		successRate = float64(m.CheckoutSuccess) / float64(m.CheckoutRequests) * 100
	}
	failures := make(map[string]int64, len(m.CheckoutFailures))
	for k, v := range m.CheckoutFailures {
		failures[k] = v
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"db":    m.DBErrors,
			"mq":    m.MQErrors,
			"cache": m.CacheErrors,
		},
		"checkout": map[string]interface{}{
			"requests":     m.CheckoutRequests,
			"success":      m.CheckoutSuccess,
			"success_rate": successRate,
			"failures":     failures,
		},
		"events": map[string]interface{}{
			"published": m.EventsPublished,
			"consumed":  m.EventsConsumed,
			"rejected":  m.EventsRejected,
		},
		"last_events": map[string]interface{}{
			"db_error":      m.LastDBError,
			"mq_error":      m.LastMQError,
			"cache_error":   m.LastCacheError,
			"last_checkout": m.LastCheckoutTime,
		},
	}
}

// Reset 重置统计（用于测试或定期清理）
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors = 0
	m.MQErrors = 0
	m.CacheErrors = 0
	m.CheckoutRequests = 0
	m.CheckoutSuccess = 0
	m.CheckoutFailures = map[string]int64{}
	m.EventsPublished = 0
	m.EventsConsumed = 0
	m.EventsRejected = 0
}
