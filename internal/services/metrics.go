package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialhouse_signups_total",
		Help: "Number of accounts created",
	})
	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhouse_logins_total",
		Help: "Number of login attempts by result",
	}, []string{"result"})
	followsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhouse_follow_changes_total",
		Help: "Number of follow edges created or removed",
	}, []string{"action"})
	photosTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialhouse_photos_created_total",
		Help: "Number of photos created",
	})
	searchDegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialhouse_search_degraded_total",
		Help: "Number of searches answered with an empty result after an internal failure",
	})
	searchCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhouse_search_cache_total",
		Help: "Search cache lookups by result",
	}, []string{"result"})
)
