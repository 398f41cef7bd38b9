package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/robotalks/logq.go/pkg/cli/mon"
	"github.com/robotalks/logq.go/pkg/logq/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/logq/"
	follow  = false
)

func init() {
	if val := os.Getenv("LOGQ_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.BoolVar(&follow, "f", follow, "Follow topics directly without the shell.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		log.Fatalln(err)
	}

	if follow {
		topic := "#"
		if args := flag.Args(); len(args) > 0 {
			topic = args[0]
		}
		recv := &mqtt.Receiver{
			Queue: q,
			Topic: topic,
			OnEntry: func(topic string, seq uint32, data []byte, missed uint32) {
				if missed > 0 {
					log.Printf("%s [%d] (%d missed) %s", topic, seq, missed, string(data))
					return
				}
				log.Printf("%s [%d] %s", topic, seq, string(data))
			},
		}
		recv.Run(context.Background())
		return
	}

	mon.New(q).Run(flag.Args()...)
}
