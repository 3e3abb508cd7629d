package envs_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/tally/pkg/envs"
)

func TestString(t *testing.T) {
	t.Setenv("TEST_ENVS_STRING", "override")

	v := "default"
	envs.String(&v, "")
	if v != "default" {
		t.Errorf("empty name: got %s", v)
	}

	envs.String(&v, "TEST_ENVS_UNSET")
	if v != "default" {
		t.Errorf("unset var: got %s", v)
	}

	envs.String(&v, "TEST_ENVS_STRING")
	if v != "override" {
		t.Errorf("got %s, want override", v)
	}
}

func TestNumericAndBool(t *testing.T) {
	t.Setenv("TEST_ENVS_INT", "42")
	t.Setenv("TEST_ENVS_BAD", "forty")
	t.Setenv("TEST_ENVS_BOOL", "true")

	n := 1
	envs.Int(&n, "TEST_ENVS_BAD")
	if n != 1 {
		t.Errorf("unparsable int changed value: %d", n)
	}
	envs.Int(&n, "TEST_ENVS_INT")
	if n != 42 {
		t.Errorf("int: got %d, want 42", n)
	}

	var n64 int64
	envs.Int64(&n64, "TEST_ENVS_INT")
	if n64 != 42 {
		t.Errorf("int64: got %d, want 42", n64)
	}

	var b bool
	envs.Bool(&b, "TEST_ENVS_BOOL")
	if !b {
		t.Error("bool: expected true")
	}
}

func TestList(t *testing.T) {
	t.Setenv("TEST_ENVS_LIST", " a, b ,,c ")

	var got []string
	envs.List(&got, "TEST_ENVS_LIST")

	if want := []string{"a", "b", "c"}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
