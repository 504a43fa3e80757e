// Package runfile writes and reads compressed run exports. A file is a zstd stream
// holding one JSON header line followed by the JSON-encoded engine.Result.
package runfile

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"polydros.ai/internal/sim/engine"
)

const Version = 1

type Header struct {
	Version         int    `json:"version"`
	ContractVersion int    `json:"contract_version"`
	Seed            int64  `json:"seed"`
	Ticks           int    `json:"ticks"`
	Agents          int    `json:"agents"`
	CatalogDigest   string `json:"catalog_digest"`
	FinalDigest     string `json:"final_digest"`
}

// HeaderFor describes res.
func HeaderFor(res *engine.Result) Header {
	h := Header{
		Version:         Version,
		ContractVersion: res.Version,
		Seed:            res.Config.Seed,
		Ticks:           res.Config.Ticks,
		Agents:          res.Config.InitialAgents,
		CatalogDigest:   res.CatalogDigest,
	}
	if n := len(res.Timeseries); n > 0 {
		h.FinalDigest = res.Timeseries[n-1].Digest
	}
	return h
}

// Path is the conventional export location for a seed under dir.
func Path(dir string, seed int64) string {
	return filepath.Join(dir, "runs", fmt.Sprintf("run-%d.json.zst", seed))
}

func Write(path string, res *engine.Result) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(HeaderFor(res))
	if err != nil {
		_ = enc.Close()
		return fmt.Errorf("marshal header: %w", err)
	}
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(res); err != nil {
		_ = enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func open(path string) (*os.File, *zstd.Decoder, *bufio.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, nil, err
	}
	return f, dec, bufio.NewReaderSize(dec, 256*1024), nil
}

func readHeader(path string, br *bufio.Reader) (Header, error) {
	var h Header
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("%s: header: %w", path, err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("%s: header: %w", path, err)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%s: unsupported version %d", path, h.Version)
	}
	return h, nil
}

// ReadHeader decodes only the header line.
func ReadHeader(path string) (Header, error) {
	f, dec, br, err := open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()
	defer dec.Close()
	return readHeader(path, br)
}

func Read(path string) (Header, *engine.Result, error) {
	f, dec, br, err := open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer f.Close()
	defer dec.Close()

	h, err := readHeader(path, br)
	if err != nil {
		return h, nil, err
	}
	var res engine.Result
	if err := json.NewDecoder(br).Decode(&res); err != nil {
		return h, nil, fmt.Errorf("%s: json decode: %w", path, err)
	}
	return h, &res, nil
}
