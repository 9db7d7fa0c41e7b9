package types

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/types/position"
	"github.com/rotblauer/trajd/types/trajectory"
	"github.com/tidwall/gjson"
)

var ErrDecodePositions = errors.New("could not decode as positions or ndjson positions or request envelope or geojson feature collection")

// Request is a reconstruction request: the tracker's observations and an optional config.
type Request struct {
	Positions []position.Position   `json:"positions"`
	Config    *params.PipelineConfig `json:"config,omitempty"`
}

// DecodeRequest sniffs the shape of data and decodes it as one of
//
//	a JSON array of positions: [{"timestamp":0,"x":0.1,"y":0.2}, ...]
//	newline-delimited positions, one object per line
//	an envelope: {"positions": [...], "config": {...}}
//	a GeoJSON FeatureCollection of Point features with a "timestamp" property
//
// A config in the envelope is decoded over the defaults, so omitted fields keep their default.
// Individual positions with missing or non-numeric fields decode as NaN and are left
// for validation to drop.
func DecodeRequest(data []byte) (*Request, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecodePositions)
	}

	// Several top-level values: NDJSON.
	if !gjson.ValidBytes(data) {
		return decodeNDJSON(data)
	}

	parsed := gjson.ParseBytes(data)
	switch {
	case parsed.IsArray():
		ps, err := decodePositionArray(parsed)
		if err != nil {
			return nil, err
		}
		return &Request{Positions: ps}, nil

	case !parsed.IsObject():
		return nil, fmt.Errorf("%w: unexpected %s", ErrDecodePositions, parsed.Type)

	// https://datatracker.ietf.org/doc/html/rfc7946#section-3.3
	case parsed.Get("type").String() == "FeatureCollection" || parsed.Get("features").Exists():
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodePositions, err)
		}
		t, err := trajectory.FromFeatureCollection(fc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodePositions, err)
		}
		return &Request{Positions: position.Positions(t)}, nil

	case parsed.Get("positions").Exists():
		pos := parsed.Get("positions")
		if !pos.IsArray() {
			return nil, fmt.Errorf("%w: 'positions' is not an array", ErrDecodePositions)
		}
		ps, err := decodePositionArray(pos)
		if err != nil {
			return nil, err
		}
		req := &Request{Positions: ps}
		if cfg := parsed.Get("config"); cfg.Exists() && cfg.Type != gjson.Null {
			req.Config = params.DefaultPipelineConfig()
			if err := json.Unmarshal([]byte(cfg.Raw), req.Config); err != nil {
				return nil, fmt.Errorf("decode config: %w", err)
			}
		}
		return req, nil
	}

	// A lone object: NDJSON of one line.
	return decodeNDJSON(data)
}

func decodePositionArray(arr gjson.Result) ([]position.Position, error) {
	out := make([]position.Position, 0, len(arr.Array()))
	for i, el := range arr.Array() {
		if !el.IsObject() {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrDecodePositions, i)
		}
		var p position.Position
		if err := json.Unmarshal([]byte(el.Raw), &p); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrDecodePositions, i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func decodeNDJSON(data []byte) (*Request, error) {
	req := &Request{}
	err := ScanJSONMessages(bytes.NewReader(data), func(msg json.RawMessage) error {
		if !gjson.ParseBytes(msg).IsObject() {
			return fmt.Errorf("%w: non-object line", ErrDecodePositions)
		}
		var p position.Position
		if err := json.Unmarshal(msg, &p); err != nil {
			return err
		}
		req.Positions = append(req.Positions, p)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDecodePositions) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDecodePositions, err)
	}
	return req, nil
}

// ReadRequest reads all of r and decodes it with DecodeRequest.
func ReadRequest(r io.Reader) (*Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeRequest(data)
}

// ScanJSONMessages reads a stream of JSON messages from an io.Reader,
// and calls onEach for each decoded message.
// If the stream is encoded as a JSON array, onEach is called for each element in the array.
func ScanJSONMessages(body io.Reader, onEach func(message json.RawMessage) error) error {
	buf := bufio.NewReader(body)
	peek, err := buf.Peek(1)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewBuffer(peek))
	t, err := dec.Token()
	if err != nil {
		return err
	}
	dec = json.NewDecoder(buf)
	if t == json.Delim('[') {
		if _, err := dec.Token(); err != nil {
			return err
		}
	}
	for dec.More() {
		var msg json.RawMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decode err: %T %w", err, err)
		}
		if err := onEach(msg); err != nil {
			return err
		}
	}
	return nil
}
