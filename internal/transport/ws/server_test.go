package ws

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"polydros.ai/internal/protocol"
	"polydros.ai/internal/session"
	"polydros.ai/internal/sim/simtest"
)

func TestReplay_StreamsEveryTickThenDone(t *testing.T) {
	res := simtest.NewHarness(t).Run(42, 3, 4)
	store := session.NewStore(2)
	sess := store.Put(res)

	srv := httptest.NewServer(NewServer(store, log.New(io.Discard, "", 0)).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?run=" + sess.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for i, want := range res.Timeseries {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read tick %d: %v", i, err)
		}
		var got protocol.TickMsg
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("decode tick %d: %v", i, err)
		}
		if got.Type != protocol.TypeTick || got.RunID != sess.ID || got.Tick.Tick != i || got.Tick.Digest != want.Digest {
			t.Fatalf("frame %d mismatch: type=%s tick=%d", i, got.Type, got.Tick.Tick)
		}
		if (i == 0) != (got.Tick.MarketSnapshot == nil) {
			t.Fatalf("frame %d: market snapshot presence wrong", i)
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read done: %v", err)
	}
	var done protocol.DoneMsg
	if err := json.Unmarshal(msg, &done); err != nil {
		t.Fatalf("decode done: %v", err)
	}
	if done.Type != protocol.TypeDone || done.Ticks != 4 || done.FinalDigest != res.Timeseries[4].Digest || done.Final != res.Final {
		t.Fatalf("unexpected done frame: %+v", done)
	}
}

func TestReplay_UnknownRun(t *testing.T) {
	srv := httptest.NewServer(NewServer(session.NewStore(1), log.New(io.Discard, "", 0)).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?run=nope"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	var em protocol.ErrorMsg
	if err := json.Unmarshal(msg, &em); err != nil {
		t.Fatalf("decode error frame: %v", err)
	}
	if em.Type != protocol.TypeError || em.Code != protocol.ErrRunNotFound {
		t.Fatalf("unexpected frame: %+v", em)
	}
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}

func TestReplay_BadInterval(t *testing.T) {
	srv := httptest.NewServer(NewServer(session.NewStore(1), log.New(io.Discard, "", 0)).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?run=x&interval_ms=-1"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 response, got %v", resp)
	}
}
