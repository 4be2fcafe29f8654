package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API 指标
var (
	// APIRequestsTotal API 请求总数
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bob_api_requests_total",
			Help: "API 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// APIRequestDuration API 请求延迟（秒）
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bob_api_request_duration_seconds",
			Help:    "API 请求延迟分布",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// 上下文检索指标
var (
	// RetrievalsTotal 检索调用总数（按状态区分）
	// status: success, empty_query, no_embedding, failed
	RetrievalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bob_retrievals_total",
			Help: "上下文检索调用总数",
		},
		[]string{"status"},
	)

	// RetrievalDuration 检索延迟（秒）
	RetrievalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bob_retrieval_duration_seconds",
			Help:    "上下文检索延迟分布",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	// RetrievalResultCount 每次检索返回的片段数量
	RetrievalResultCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bob_retrieval_result_count",
			Help:    "每次检索返回的片段数量分布",
			Buckets: []float64{0, 1, 3, 5, 8, 10, 12, 15},
		},
	)
)

// 文档入库指标
var (
	// DocumentsIndexedTotal 已入库文档总数（按结果区分）
	DocumentsIndexedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bob_documents_indexed_total",
			Help: "文档入库处理总数",
		},
		[]string{"status"},
	)

	// ChunksStoredTotal 已写入的文档分块总数
	ChunksStoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bob_chunks_stored_total",
			Help: "已写入的文档分块总数",
		},
	)
)
