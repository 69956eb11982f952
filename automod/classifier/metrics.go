package classifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var geminiAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_gemini_api_requests",
	Help: "Number of classification API requests, by HTTP status code",
}, []string{"status"})

var geminiAPIDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "automod_gemini_api_duration_sec",
	Help: "Duration of classification API requests",
})

var mediaFetchCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_media_fetches",
	Help: "Number of media downloads for classification, by HTTP status code",
}, []string{"status"})

var classificationFailureCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_classification_failures",
	Help: "Number of classifier responses which could not be parsed",
})
