package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/stp.go/pkg/publish/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/stp/"
	filter  = "#"
)

func init() {
	if val := os.Getenv("STP_BROKER_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&filter, "topic", filter, "Topic filter, e.g. SOURCE/+/c1.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)
	defer glog.Flush()

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q.Sub(filter, func(topic string, payload []byte) {
		r, err := mqtt.DecodeRecord(payload)
		if err != nil {
			log.Printf("%s: bad record: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, r.String())
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = q.Connect(ctx)
	cancel()
	if err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	<-sigCh
}
