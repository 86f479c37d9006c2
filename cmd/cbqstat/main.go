// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command cbqstat attaches to a shared queue window from the host
// side and reports per-channel counters.
//
// Usage:
//
//	cbqstat [-config file] [-path file] [-timeout d] [-watch d]
//
// With -watch the report repeats at the given interval until
// interrupted. Environment variables are loaded from a .env file when
// one exists; CBQ_DEBUG=hostif enables window debug logging.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"code.hybscloud.com/cbq"
	"code.hybscloud.com/cbq/hostif"
)

func main() {
	configPath := flag.String("config", "", "window configuration file (TOML)")
	windowPath := flag.String("path", "", "window backing file (overrides config)")
	timeout := flag.Duration("timeout", 3*time.Second, "how long to wait for the window")
	watch := flag.Duration("watch", 0, "report interval, 0 reports once")
	flag.Parse()

	_ = godotenv.Load()

	logger := logrus.New()
	if strings.Contains(os.Getenv("CBQ_DEBUG"), "hostif") {
		logger.Level = logrus.DebugLevel
		hostif.SetLogger(logger.WithField("logger", "cbq/hostif"))
	}

	cfg := hostif.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = hostif.LoadConfig(*configPath); err != nil {
			logger.Fatalf("cbqstat: %v", err)
		}
	}
	if *windowPath != "" {
		cfg.Path = *windowPath
	}

	w, err := hostif.Wait(cfg.Path, *timeout)
	if err != nil {
		logger.Fatalf("cbqstat: %v", err)
	}
	defer w.Close()

	reg := cbq.New().Host().Window(w).Build()
	queues := make([]*cbq.Queue, 0, len(cbq.QueueIDs()))
	for _, id := range cbq.QueueIDs() {
		if !id.Shared() {
			continue
		}
		q, err := reg.CreateInstance(id)
		if err != nil {
			logger.Fatalf("cbqstat: create %v: %v", id, err)
		}
		if err = q.ConnectBuffer(); err != nil {
			logger.Warnf("cbqstat: connect %v: %v", id, err)
			continue
		}
		queues = append(queues, q)
	}
	if len(queues) == 0 {
		logger.Fatalf("cbqstat: no connectable channels in %s", w.Path())
	}

	report(w, queues)
	if *watch <= 0 {
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ticker := time.NewTicker(*watch)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report(w, queues)
		}
	}
}

// report prints one snapshot. The counters come from the lock-free
// observers, so a busy producer can make a row slightly stale but the
// tool never contends with the data path.
func report(w *hostif.Window, queues []*cbq.Queue) {
	fmt.Printf("window %s (%d bytes) at %s\n", w.Path(), w.Size(), time.Now().Format(time.TimeOnly))
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tSLOT\tSIZE\tCOUNT\tFREE\tENQUEUED\tDROPPED")
	for _, q := range queues {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			q.ID(), q.Slot(), q.PayloadSize(), q.DataCount(), q.FreeSpace(), q.Enqueued(), q.Dropped())
	}
	tw.Flush()
}
