package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scrapeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitechat_scrape_requests_total",
		Help: "Scrape requests by category and result.",
	}, []string{"category", "result"})

	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitechat_chat_requests_total",
		Help: "Chat requests by result.",
	}, []string{"result"})

	botConnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitechat_bot_connects_total",
		Help: "Telegram connect attempts by result.",
	}, []string{"result"})
)
