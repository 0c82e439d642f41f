package main

import (
	"bytes"
	"testing"
)

func TestFastJSONMarshalLeavesHTMLUnescaped(t *testing.T) {
	rec := ShareRecord{Agent: "cgminer/<4.11>&co", WorkerName: "bc1q.rig"}
	line, err := fastJSONMarshal(rec)
	if err != nil {
		t.Fatalf("fastJSONMarshal: %v", err)
	}
	if !bytes.Contains(line, []byte(`"agent":"cgminer/<4.11>&co"`)) {
		t.Fatalf("expected agent written verbatim, got %s", line)
	}
	if bytes.HasSuffix(line, []byte("\n")) {
		t.Fatalf("marshal output must not end in a newline")
	}

	var back ShareRecord
	if err := fastJSONUnmarshal(line, &back); err != nil {
		t.Fatalf("fastJSONUnmarshal: %v", err)
	}
	if back.Agent != rec.Agent {
		t.Fatalf("expected agent %q, got %q", rec.Agent, back.Agent)
	}
}
