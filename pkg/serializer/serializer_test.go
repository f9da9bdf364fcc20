package serializer

import (
	"bytes"
	"testing"
)

func TestDefaultSerializeString(t *testing.T) {
	d := Default{}
	got, err := d.Serialize("hello")
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Serialize() = %q, want %q", got, "hello")
	}
}

func TestDefaultSerializeBytes(t *testing.T) {
	d := Default{}
	in := []byte{1, 2, 3}
	got, err := d.Serialize(in)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if !bytes.Equal(got, in) {
		t.Errorf("Serialize() = %v, want %v", got, in)
	}
}

func TestDefaultSerializeRejectsOtherTypes(t *testing.T) {
	d := Default{}
	if _, err := d.Serialize(42); err == nil {
		t.Error("Serialize(int) should fail on the default codec")
	}
}

func TestDefaultDeserializeString(t *testing.T) {
	d := Default{}
	var s string
	if err := d.Deserialize([]byte("world"), &s); err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if s != "world" {
		t.Errorf("Deserialize() = %q, want %q", s, "world")
	}
}

func TestDefaultDeserializeBytes(t *testing.T) {
	d := Default{}
	var b []byte
	in := []byte{9, 8, 7}
	if err := d.Deserialize(in, &b); err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if !bytes.Equal(b, in) {
		t.Errorf("Deserialize() = %v, want %v", b, in)
	}
}

func TestJSONCodecRoundtrip(t *testing.T) {
	j := JSON{}

	type point struct {
		X, Y int
	}
	in := point{X: 3, Y: 4}

	data, err := j.Serialize(in)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	var out point
	if err := j.Deserialize(data, &out); err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if out != in {
		t.Errorf("Deserialize() = %+v, want %+v", out, in)
	}
}
