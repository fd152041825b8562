package queue

import (
	"encoding/json"
	"testing"
)

type exportRequest struct {
	Signal string `json:"signal"`
	Window int    `json:"window"`
}

func TestParsePayloadPassesThroughTypedValues(t *testing.T) {
	want := exportRequest{Signal: "rpm", Window: 60}

	got, err := ParsePayload[exportRequest](&want)
	if err != nil {
		t.Fatal(err)
	}
	if *got != want {
		t.Fatalf("pointer payload: %+v", got)
	}

	got, err = ParsePayload[exportRequest](want)
	if err != nil {
		t.Fatal(err)
	}
	if *got != want {
		t.Fatalf("value payload: %+v", got)
	}
}

func TestParsePayloadDecodesRoundTrippedJSON(t *testing.T) {
	// What a payload looks like after the redis round-trip.
	decoded := map[string]interface{}{"signal": "temp", "window": float64(30)}

	got, err := ParsePayload[exportRequest](decoded)
	if err != nil {
		t.Fatal(err)
	}
	if got.Signal != "temp" || got.Window != 30 {
		t.Fatalf("map payload: %+v", got)
	}

	raw := json.RawMessage(`{"signal":"volt","window":10}`)
	got, err = ParsePayload[exportRequest](raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.Signal != "volt" || got.Window != 10 {
		t.Fatalf("raw payload: %+v", got)
	}
}

func TestParsePayloadRejectsMismatchedShape(t *testing.T) {
	if _, err := ParsePayload[exportRequest](json.RawMessage(`[1,2]`)); err == nil {
		t.Fatal("array decoded into struct")
	}
}

func TestNormalizePayloadWrapsDecodedJSON(t *testing.T) {
	raw, ok := normalizePayload(map[string]interface{}{"signal": "rpm"}).(json.RawMessage)
	if !ok {
		t.Fatal("map not normalized to raw JSON")
	}
	var req exportRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.Signal != "rpm" {
		t.Fatalf("normalized payload: %v %+v", err, req)
	}

	if _, ok := normalizePayload("plain").(string); !ok {
		t.Fatal("scalar payload should pass through")
	}
}
