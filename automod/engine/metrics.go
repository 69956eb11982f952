package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var postProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "automod_post_process_duration_sec",
	Help: "Total duration of automod post evaluation",
})

var postProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_posts_processed",
	Help: "Number of posts evaluated, by outcome",
}, []string{"status"})

var filterViolationCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_filter_violations",
	Help: "Number of violations detected, by filter or rule name",
}, []string{"filter"})

var memberTimeoutCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_member_timeouts",
	Help: "Number of member timeouts applied",
})
