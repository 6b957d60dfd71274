package phoenix

import "testing"

func TestSecretKeyFromSeedIsDeterministic(t *testing.T) {
	a := SecretKeyFromSeed([]byte("alice"))
	b := SecretKeyFromSeed([]byte("alice"))
	if !a.A.Equal(&b.A) || !a.B.Equal(&b.B) {
		t.Fatal("same seed produced different keys")
	}

	c := SecretKeyFromSeed([]byte("bob"))
	if a.A.Equal(&c.A) && a.B.Equal(&c.B) {
		t.Fatal("different seeds produced the same key")
	}
}

func TestStealthAddressOwnershipAndRecovery(t *testing.T) {
	sk := SecretKeyFromSeed([]byte("alice"))
	pk := sk.PublicKey()
	vk := sk.ViewKey()

	rG, pkR, _ := StealthOutput(pk)

	if !vk.IsOwnedBy(rG, pkR) {
		t.Fatal("owner's view key failed to recognize its own stealth address")
	}

	other := SecretKeyFromSeed([]byte("bob")).ViewKey()
	if other.IsOwnedBy(rG, pkR) {
		t.Fatal("unrelated view key incorrectly recognized a stealth address")
	}

	skR := SkR(sk, rG)
	base := basepoint()
	var recovered Point
	recovered.ScalarMultiplication(&base, scalarBigInt(skR))
	if !recovered.X.Equal(&pkR.X) || !recovered.Y.Equal(&pkR.Y) {
		t.Fatal("recovered spending scalar does not reproduce pk_r")
	}
}

func TestPublicKeyHexRoundTrip(t *testing.T) {
	pk := SecretKeyFromSeed([]byte("alice")).PublicKey()
	s := pk.String()
	got, err := PublicKeyFromHex(s)
	if err != nil {
		t.Fatalf("PublicKeyFromHex: %v", err)
	}
	if !got.AG.X.Equal(&pk.AG.X) || !got.BG.X.Equal(&pk.BG.X) {
		t.Fatal("round trip mismatch")
	}
}
