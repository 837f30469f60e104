package monte

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestConditions_Add(t *testing.T) {
	initial := NewConditions(Cond("Zr", 2.0), Cond("O", 0.01), Cond("Va", 1.99))
	inc := NewConditions(Cond("Zr", 0.0), Cond("O", 0.01), Cond("Va", -0.01))

	got, err := initial.Add(inc)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	want := NewConditions(Cond("Zr", 2.0), Cond("O", 0.02), Cond("Va", 1.98))
	if !got.Equal(want, 1e-12) {
		t.Errorf("Add() = %v, want %v", got, want)
	}
	if diff := cmp.Diff([]string{"Zr", "O", "Va"}, got.Names()); diff != "" {
		t.Errorf("order changed (-want +got):\n%s", diff)
	}
}

func TestConditions_AddMismatch(t *testing.T) {
	a := NewConditions(Cond("temperature", 300))
	b := NewConditions(Cond("field", 0.1))

	_, err := a.Add(b)
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestConditions_Immutable(t *testing.T) {
	a := NewConditions(Cond("temperature", 300))
	b := a.With("temperature", 400)
	_ = a.Scale(2)

	if a.Value("temperature") != 300 {
		t.Errorf("receiver modified: %v", a)
	}
	if b.Value("temperature") != 400 {
		t.Errorf("With() = %v", b)
	}

	names := a.Names()
	names[0] = "x"
	if a.Names()[0] != "temperature" {
		t.Error("Names() exposed internal slice")
	}
}

func TestConditions_Scale(t *testing.T) {
	c := NewConditions(Cond("O", 0.01), Cond("Va", -0.01)).Scale(3)
	if math.Abs(c.Value("O")-0.03) > 1e-15 || math.Abs(c.Value("Va")+0.03) > 1e-15 {
		t.Errorf("Scale(3) = %v", c)
	}
}

func TestConditions_YAMLOrder(t *testing.T) {
	src := "Zr: 2\nVa: 1.99\nO: 0.01\n"

	var c Conditions
	if err := yaml.Unmarshal([]byte(src), &c); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Zr", "Va", "O"}, c.Names()); diff != "" {
		t.Errorf("yaml order (-want +got):\n%s", diff)
	}

	out, err := yaml.Marshal(c)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != src {
		t.Errorf("yaml = %q, want %q", out, src)
	}
}

func TestConditions_JSONOrder(t *testing.T) {
	c := NewConditions(Cond("temperature", 300), Cond("field", -0.5))

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"temperature":300,"field":-0.5}` {
		t.Errorf("json = %s", data)
	}

	var back Conditions
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !back.Equal(c, 0) {
		t.Errorf("round trip = %v, want %v", back, c)
	}
	if back.Names()[0] != "temperature" {
		t.Errorf("json order lost: %v", back.Names())
	}
}

func TestConfigError(t *testing.T) {
	err := Configf("check_frequency", "must be positive, got %d", 0)
	if !errors.Is(err, ErrConfiguration) {
		t.Error("ConfigError should match ErrConfiguration")
	}
	expected := "monte: invalid configuration: check_frequency: must be positive, got 0"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestEvaluationError(t *testing.T) {
	cause := errors.New("clexulator not loaded")
	err := error(&EvaluationError{Observable: "corr", Index: 3, Progress: 30, Wrapped: cause})

	if !errors.Is(err, ErrEvaluation) {
		t.Error("expected ErrEvaluation match")
	}
	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause match")
	}
}
