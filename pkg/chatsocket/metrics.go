package chatsocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "chatsocket",
		Name:      "connects_total",
		Help:      "Chat socket connections successfully established.",
	})

	messagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "chatsocket",
		Name:      "messages_sent_total",
		Help:      "Outbound chat messages written to the socket.",
	})

	messagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "chatsocket",
		Name:      "messages_received_total",
		Help:      "Live inbound chat messages applied to the store.",
	})

	historyPages = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "chatsocket",
		Name:      "history_pages_total",
		Help:      "History pages applied to the store.",
	})

	errorFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "chatsocket",
		Name:      "error_frames_total",
		Help:      "Error frames received from the chat server.",
	})
)
