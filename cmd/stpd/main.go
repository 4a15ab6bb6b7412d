package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/stp.go/pkg/capture"
	"github.com/robotalks/stp.go/pkg/env"
	fx "github.com/robotalks/stp.go/pkg/framework"
	"github.com/robotalks/stp.go/pkg/metrics"
	"github.com/robotalks/stp.go/pkg/publish/mqtt"
	"github.com/robotalks/stp.go/pkg/stp"
	"github.com/robotalks/stp.go/pkg/trace"
)

const connectTimeout = 10 * time.Second

func init() {
	env.SetupFlags()
}

func openInput(conf *env.Config) (io.ReadCloser, stp.ChunkReader, error) {
	var in io.ReadCloser = os.Stdin
	if conf.Input != "-" {
		f, err := os.Open(conf.Input)
		if err != nil {
			return nil, nil, err
		}
		in = f
	}
	if conf.Raw {
		return in, capture.Raw(in, conf.ChunkSize), nil
	}
	return in, capture.NewReader(in), nil
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := env.Load()
	if err != nil {
		log.Fatalln(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	q, err := mqtt.NewQueueFromURL(conf.BrokerURL)
	if err != nil {
		log.Fatalln(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	err = q.Connect(ctx)
	cancel()
	if err != nil {
		log.Fatalf("connect %s failed: %v", conf.BrokerURL, err)
	}
	defer q.Close()

	session := env.NewSession()
	glog.Infof("source %s session %s", conf.Source, session)
	pub := mqtt.NewPublisher(q, conf.Source, session)
	pub.Timeout = conf.PublishTimeout
	pub.Observer = m
	pub.Async(mqtt.DefaultPendingSize)

	tracker := trace.NewTracker(&trace.Filter{
		Handler:  pub,
		SkipNull: conf.SkipNull,
		DataOnly: conf.DataOnly,
	})

	in, reader, err := openInput(conf)
	if err != nil {
		log.Fatalln(err)
	}
	pump := stp.NewPump(reader, stp.Config{
		Handler:        m.CountPackets(tracker),
		StartOutOfSync: conf.StartOutOfSync,
	})
	pump.Observer = m
	pump.Notifier = stp.StateNotifiers{tracker, m}

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("publisher", pub))
	runner.Go(fx.NamedRun("pump", fx.RunFunc(func(ctx context.Context) error {
		return fx.RunWithContextCloser(ctx, in, func() error {
			return pump.Run(ctx)
		})
	})))
	if conf.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: conf.MetricsAddr, Handler: mux}
		runner.Go(fx.NamedRun("metrics", fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
		})))
	}
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
