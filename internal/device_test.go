package internal

import "testing"

func TestHashBindingValue(t *testing.T) {
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashBindingValue("abc"); got != want {
		t.Fatalf("HashBindingValue(abc) = %s, want %s", got, want)
	}
	if HashBindingValue("client_1") == HashBindingValue("client_2") {
		t.Fatal("expected distinct inputs to hash differently")
	}
}
