package main

//go-build: CGO_ENABLED=0

import (
	"bufio"
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/golang/glog"

	fx "github.com/robotalks/logq.go/pkg/framework"
	"github.com/robotalks/logq.go/pkg/logq"
	"github.com/robotalks/logq.go/pkg/logq/mqtt"
	"github.com/robotalks/logq.go/pkg/logq/pump"
	ws "github.com/robotalks/logq.go/pkg/logq/websocket"
)

var (
	mqttURL    = "mqtt://localhost:1883/logq/"
	topic      = "log"
	bufferSize = 64 * 1024
	listenAddr = ""
)

func init() {
	if val := os.Getenv("LOGQ_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&topic, "topic", topic, "Topic to publish log entries.")
	flag.IntVar(&bufferSize, "buffer", bufferSize, "Log buffer size in bytes.")
	flag.StringVar(&listenAddr, "listen", listenAddr, "Address to serve websocket followers.")
}

func main() {
	flag.Parse()

	sink := logq.NewMultiSink(make([]byte, bufferSize))

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	fw := &mqtt.Forwarder{Queue: q, Topic: topic}
	p, err := pump.New(sink, fw.Handler())
	if err != nil {
		log.Fatalln(err)
	}

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("mqtt-pump", p))
	runner.Go(fx.NamedRun("stdin", fx.RunFunc(func(ctx context.Context) error {
		return fx.RunWithContextCancel(ctx, func() { os.Stdin.Close() }, func() error {
			return scanInto(sink)
		})
	})))

	if listenAddr != "" {
		srv := &http.Server{
			Addr:    listenAddr,
			Handler: (&ws.Server{Sink: sink}).Handler(),
		}
		runner.Go(fx.NamedRun("websocket", fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, srv, func() error {
				if err := srv.ListenAndServe(); err != http.ErrServerClosed {
					return err
				}
				return nil
			})
		})))
	}

	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}

func scanInto(sink *logq.MultiSink) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if _, err := sink.HandleEntry(line); err != nil {
			// An oversized line is already counted as dropped.
			if err == logq.ErrEntryTooLarge {
				glog.Warning("dropped oversized line")
				continue
			}
			return err
		}
	}
	return scanner.Err()
}
