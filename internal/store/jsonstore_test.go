package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRaw(t *testing.T) {
	s := NewJSONStore(t.TempDir())

	if s.Exists("entry/1/gw/5.json") {
		t.Fatal("Exists() = true before write")
	}
	if err := s.WriteRaw("entry/1/gw/5.json", []byte(`{"a":1}`), false); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if !s.Exists("entry/1/gw/5.json") {
		t.Error("Exists() = false after write")
	}

	b, err := s.ReadRaw("entry/1/gw/5.json")
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if got, want := string(b), `{"a":1}`; got != want {
		t.Errorf("ReadRaw = %q, want %q", got, want)
	}
}

func TestWriteRawPretty(t *testing.T) {
	s := NewJSONStore(t.TempDir())
	if err := s.WriteRaw("x.json", []byte(`{"a":1,"b":2}`), true); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(s.Root, "x.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(b) <= len(`{"a":1,"b":2}`) {
		t.Errorf("pretty output not indented: %q", b)
	}
}

func TestReadRawMissing(t *testing.T) {
	s := NewJSONStore(t.TempDir())
	if _, err := s.ReadRaw("nope.json"); err == nil {
		t.Error("ReadRaw on missing file: want error")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := NewJSONStore(t.TempDir())

	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}
	if err := s.WriteJSON("obj.json", payload{Name: "x", N: 3}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var got payload
	if err := s.ReadJSON("obj.json", &got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Name != "x" || got.N != 3 {
		t.Errorf("ReadJSON = %+v", got)
	}
}
