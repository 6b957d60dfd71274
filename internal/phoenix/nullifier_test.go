package phoenix

import "testing"

func TestDeriveNullifierDeterministicAndDistinct(t *testing.T) {
	var sk Scalar
	sk.SetUint64(7)

	a := DeriveNullifier(sk, 0)
	b := DeriveNullifier(sk, 0)
	if !a.Equal(&b) {
		t.Fatal("same sk_r and index produced different nullifiers")
	}

	c := DeriveNullifier(sk, 1)
	if a.Equal(&c) {
		t.Fatal("different indices produced the same nullifier")
	}
}
