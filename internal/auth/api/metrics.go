package authapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finboard",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Login attempts by outcome (ok, invalid_credentials, error).",
	}, []string{"outcome"})

	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finboard",
		Subsystem: "auth",
		Name:      "registrations_total",
		Help:      "Registration attempts by outcome (ok, conflict, invalid, error).",
	}, []string{"outcome"})

	tokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finboard",
		Subsystem: "auth",
		Name:      "token_refreshes_total",
		Help:      "Refresh attempts by outcome (ok, invalid_token, error).",
	}, []string{"outcome"})
)
