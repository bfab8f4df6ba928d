package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		ChatTurnDuration, ChatTurnTotal,
		OracleCallDuration, OracleCallTotal,
		RecordCallTotal, RateLimitWaitSeconds,
	)
}

// ChatTurnDuration 单轮对话处理耗时（秒）
var ChatTurnDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "procurement_chat_turn_duration_seconds",
		Help:    "单轮对话处理耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"agent"}, // purchase | requisition
)

// ChatTurnTotal 对话轮次总数（按结束状态）
var ChatTurnTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "procurement_chat_turn_total",
		Help: "对话轮次总数（按结束状态）",
	},
	[]string{"agent", "state"},
)

// OracleCallDuration 生成式服务调用耗时（秒）
var OracleCallDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "procurement_oracle_call_duration_seconds",
		Help:    "生成式服务调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"call"},
)

// OracleCallTotal 生成式服务调用总数（按结果）
var OracleCallTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "procurement_oracle_call_total",
		Help: "生成式服务调用总数（按结果）",
	},
	[]string{"call", "result"}, // result: ok | error | parse_error
)

// RecordCallTotal 记录服务调用总数（按端点与结果）
var RecordCallTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "procurement_record_call_total",
		Help: "记录服务调用总数（按端点与结果）",
	},
	[]string{"endpoint", "result"},
)

// RateLimitWaitSeconds 限流等待耗时（秒），仅记录超过 100ms 的等待
var RateLimitWaitSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "procurement_rate_limit_wait_seconds",
		Help:    "限流等待耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"kind", "provider"},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	mfs, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
