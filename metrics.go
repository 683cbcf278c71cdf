package main

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type VoidmailMetrics struct {
	Distributor *DistributorMetrics
}

type DistributorMetrics struct {
	Commands      metrics.Counter
	Registrations metrics.Counter
	Logins        metrics.Counter
	EmailsSent    metrics.Counter
}

func NewVoidmailMetrics(distributorAddr string) *VoidmailMetrics {

	m := &VoidmailMetrics{}

	if distributorAddr == "" {
		m.Distributor = &DistributorMetrics{
			Commands:      discard.NewCounter(),
			Registrations: discard.NewCounter(),
			Logins:        discard.NewCounter(),
			EmailsSent:    discard.NewCounter(),
		}
	} else {
		m.Distributor = &DistributorMetrics{
			Commands: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "voidmail",
				Subsystem: "distributor",
				Name:      "commands_total",
				Help:      "Number of processed commands by command name",
			}, []string{"command"}),
			Registrations: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "voidmail",
				Subsystem: "distributor",
				Name:      "registrations_total",
				Help:      "Number of answered REGISTER commands",
			}, nil),
			Logins: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "voidmail",
				Subsystem: "distributor",
				Name:      "logins_total",
				Help:      "Number of answered LOGIN commands",
			}, nil),
			EmailsSent: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "voidmail",
				Subsystem: "distributor",
				Name:      "emails_sent_total",
				Help:      "Number of answered SENDEMAIL commands",
			}, nil),
		}
	}

	return m
}

func runPromHTTP(logger log.Logger, addr string) {

	if addr == "" {
		level.Debug(logger).Log("msg", "prometheus addr is empty, not exposing prometheus metrics")
		return
	}

	http.Handle("/metrics", promhttp.HandlerFor(prom.DefaultGatherer, promhttp.HandlerOpts{}))

	level.Info(logger).Log("msg", "prometheus handler listening", "addr", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		level.Warn(logger).Log("msg", "failed to serve prometheus metrics", "err", err)
	}
}
