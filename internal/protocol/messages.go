package protocol

import (
	"polydros.ai/internal/sim/engine"
	"polydros.ai/internal/sim/world"
)

// TICK (server -> client), one per timeseries entry starting at tick 0.
type TickMsg struct {
	Type            string             `json:"type"`
	ProtocolVersion string             `json:"protocol_version"`
	RunID           string             `json:"run_id"`
	Tick            engine.TickSummary `json:"tick"`
}

// DONE (server -> client) follows the last TICK.
type DoneMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	RunID           string        `json:"run_id"`
	Ticks           int           `json:"ticks"`
	Final           world.Summary `json:"final"`
	FinalDigest     string        `json:"final_digest"`
}

// ERROR (server -> client) precedes a close.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewTick(runID string, ts engine.TickSummary) TickMsg {
	return TickMsg{Type: TypeTick, ProtocolVersion: Version, RunID: runID, Tick: ts}
}

func NewDone(runID string, res *engine.Result) DoneMsg {
	m := DoneMsg{
		Type:            TypeDone,
		ProtocolVersion: Version,
		RunID:           runID,
		Ticks:           res.Final.Tick,
		Final:           res.Final,
	}
	if n := len(res.Timeseries); n > 0 {
		m.FinalDigest = res.Timeseries[n-1].Digest
	}
	return m
}

func NewError(code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: msg}
}
