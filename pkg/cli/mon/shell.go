// Package mon provides the interactive log monitor shell.
package mon

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/logq.go/pkg/logq/mqtt"
)

// Shell provides ishell backed interactive log monitor.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell
	Queue *mqtt.Queue

	lock    sync.Mutex
	watches map[string]*watch
}

type watch struct {
	cancel  func()
	entries uint64
	missed  uint64
}

// TopicStats is one row of the stats command output.
type TopicStats struct {
	Topic   string `json:"topic"`
	Entries uint64 `json:"entries"`
	Missed  uint64 `json:"missed"`
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&WatchCmd,
		&UnwatchCmd,
		&StatsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell over a connected queue.
func New(q *mqtt.Queue) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:   ishell.New(),
		Queue:   q,
		watches: make(map[string]*watch),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt("logq > ")
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Watch follows a topic pattern, printing entries as they arrive.
func (s *Shell) Watch(topic string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.watches[topic]; ok {
		return fmt.Errorf("already watching %q", topic)
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &watch{cancel: cancel}
	recv := &mqtt.Receiver{
		Queue:   s.Queue,
		Topic:   topic,
		OnEntry: s.printEntry(w),
	}
	go recv.Run(ctx)
	s.watches[topic] = w
	return nil
}

// Unwatch stops following a topic pattern.
func (s *Shell) Unwatch(topic string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	w := s.watches[topic]
	if w == nil {
		return fmt.Errorf("not watching %q", topic)
	}
	w.cancel()
	delete(s.watches, topic)
	return nil
}

// Stats snapshots per-watch counters, sorted by topic.
func (s *Shell) Stats() []TopicStats {
	s.lock.Lock()
	stats := make([]TopicStats, 0, len(s.watches))
	for topic, w := range s.watches {
		stats = append(stats, TopicStats{Topic: topic, Entries: w.entries, Missed: w.missed})
	}
	s.lock.Unlock()
	sort.Slice(stats, func(i, j int) bool { return stats[i].Topic < stats[j].Topic })
	return stats
}

func (s *Shell) printEntry(w *watch) mqtt.EntryFunc {
	return func(topic string, seq uint32, data []byte, missed uint32) {
		s.lock.Lock()
		w.entries++
		w.missed += uint64(missed)
		s.lock.Unlock()
		if missed > 0 {
			s.Shell.Printf("%s [%d] (%d missed) %s\n", topic, seq, missed, string(data))
			return
		}
		s.Shell.Printf("%s [%d] %s\n", topic, seq, string(data))
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// WatchCmd follows a topic.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "TOPIC",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("topic expected"))
				return
			}
			if err := ShellFrom(c).Watch(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// UnwatchCmd stops following a topic.
	UnwatchCmd = ishell.Cmd{
		Name:    "unwatch",
		Aliases: []string{"u"},
		Help:    "TOPIC",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("topic expected"))
				return
			}
			if err := ShellFrom(c).Unwatch(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// StatsCmd prints per-watch counters.
	StatsCmd = ishell.Cmd{
		Name:    "stats",
		Aliases: []string{"s"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			stats := s.Stats()
			if s.OutputJSON {
				out, err := json.Marshal(stats)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(stats) == 0 {
				c.Println("No watches")
				return
			}
			for _, st := range stats {
				c.Printf("%s: %d entries, %d missed\n", st.Topic, st.Entries, st.Missed)
			}
		},
	}
)
