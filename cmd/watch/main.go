package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"

	"github.com/gorilla/websocket"

	"polydros.ai/internal/protocol"
)

func main() {
	var (
		base     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		runID    = flag.String("run", "", "run id (defaults to the latest run)")
		interval = flag.Int("interval_ms", 0, "server-side delay between frames")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[watch] ", log.LstdFlags|log.Lmicroseconds)
	u, err := url.Parse(*base)
	if err != nil {
		logger.Fatalf("bad -url: %v", err)
	}
	q := u.Query()
	if *runID != "" {
		q.Set("run", *runID)
	}
	if *interval > 0 {
		q.Set("interval_ms", strconv.Itoa(*interval))
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return
			}
			logger.Fatalf("read: %v", err)
		}
		done, err := handleFrame(os.Stdout, msg)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		if done {
			return
		}
	}
}

// handleFrame prints one frame. It reports true once the stream is over.
func handleFrame(out io.Writer, msg []byte) (bool, error) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return false, fmt.Errorf("decode frame: %w", err)
	}
	switch base.Type {
	case protocol.TypeTick:
		var m protocol.TickMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return false, fmt.Errorf("decode TICK: %w", err)
		}
		ts := m.Tick
		line := fmt.Sprintf("tick=%d agents=%d cards=%d boosters=%d events=%d digest=%s",
			ts.Tick, ts.AgentCount, ts.TotalCards, ts.DistributorBoosters, len(ts.Events), short(ts.Digest))
		if s := ts.MarketSnapshot; s != nil {
			line += fmt.Sprintf(" price_index=%.2f volatility=%.2f", s.PriceIndex, s.Volatility)
		}
		fmt.Fprintln(out, line)
		return false, nil

	case protocol.TypeDone:
		var m protocol.DoneMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return false, fmt.Errorf("decode DONE: %w", err)
		}
		fmt.Fprintf(out, "done run=%s ticks=%d agents=%d cards=%d final=%s\n",
			m.RunID, m.Ticks, m.Final.AgentCount, m.Final.TotalCards, short(m.FinalDigest))
		return true, nil

	case protocol.TypeError:
		var m protocol.ErrorMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return false, fmt.Errorf("decode ERROR: %w", err)
		}
		return true, fmt.Errorf("%s: %s", m.Code, m.Message)
	}
	return false, nil
}

func short(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
