package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_provider_requests_total",
		Help: "Number of AI provider API calls attempted",
	}, []string{"provider"})

	providerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_provider_failures_total",
		Help: "Number of AI provider API calls that failed",
	}, []string{"provider", "reason"})

	fallbackResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ai_fallback_responses_total",
		Help: "Number of responses served from character fallback text",
	})

	greetingShortCircuits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ai_greeting_short_circuits_total",
		Help: "Number of responses served as greetings without a provider call",
	})
)
