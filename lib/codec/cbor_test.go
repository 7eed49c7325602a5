// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

type resultRow struct {
	Statement int    `json:"statement"`
	Name      string `json:"name,omitempty"`
	Count     int64  `json:"count"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := resultRow{Statement: 2, Name: "users", Count: 42}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded resultRow
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministicKeyOrder(t *testing.T) {
	first, err := Marshal(map[string]any{"zeta": 1, "alpha": 2, "mid": 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(map[string]any{"mid": 3, "alpha": 2, "zeta": 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}

	diagnostic, err := Diagnose(first)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	// Core Deterministic Encoding orders keys by encoded length first.
	mid := strings.Index(diagnostic, `"mid"`)
	zeta := strings.Index(diagnostic, `"zeta"`)
	alpha := strings.Index(diagnostic, `"alpha"`)
	if mid < 0 || !(mid < zeta && zeta < alpha) {
		t.Errorf("Diagnose = %s, want keys ordered mid, zeta, alpha", diagnostic)
	}
}

func TestAnyTargetDecodesStringKeyedMaps(t *testing.T) {
	data, err := Marshal(map[string]any{"id": 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	fields, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded %T, want map[string]any", decoded)
	}
	if fields["id"] != uint64(1) {
		t.Errorf("id = %#v, want uint64(1)", fields["id"])
	}
}

func TestEncoderDecoderSequence(t *testing.T) {
	rows := []resultRow{
		{Statement: 1, Count: 1},
		{Statement: 1, Name: "b", Count: 2},
		{Statement: 2, Count: 3},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, row := range rows {
		if err := encoder.Encode(row); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range rows {
		var got resultRow
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode row %d: %v", i, err)
		}
		if got != want {
			t.Errorf("row %d = %+v, want %+v", i, got, want)
		}
	}
	var extra resultRow
	if err := decoder.Decode(&extra); err != io.EOF {
		t.Errorf("Decode after last row = %v, want io.EOF", err)
	}
}
