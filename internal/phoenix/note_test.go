package phoenix

import "testing"

func TestObfuscatedNoteValueRoundTrip(t *testing.T) {
	sk := SecretKeyFromSeed([]byte("alice"))
	pk := sk.PublicKey()
	vk := sk.ViewKey()

	note, _ := Output(KindObfuscated, pk, 4200)

	if !note.IsOwnedBy(vk) {
		t.Fatal("owner failed to recognize its own note")
	}
	if got := note.Value(&vk); got != 4200 {
		t.Fatalf("Value = %d, want 4200", got)
	}
}

func TestObfuscatedNoteValuePanicsWithoutViewKey(t *testing.T) {
	pk := SecretKeyFromSeed([]byte("alice")).PublicKey()
	note, _ := Output(KindObfuscated, pk, 10)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling Value(nil) on an obfuscated note")
		}
	}()
	note.Value(nil)
}

func TestTransparentNoteIgnoresViewKey(t *testing.T) {
	pk := SecretKeyFromSeed([]byte("alice")).PublicKey()
	note, _ := Output(KindTransparent, pk, 77)

	if got := note.Value(nil); got != 77 {
		t.Fatalf("Value = %d, want 77", got)
	}
}

func TestWrongViewKeyDoesNotAuthenticate(t *testing.T) {
	alicePK := SecretKeyFromSeed([]byte("alice")).PublicKey()
	bobVK := SecretKeyFromSeed([]byte("bob")).ViewKey()

	note, _ := Output(KindObfuscated, alicePK, 500)
	if note.IsOwnedBy(bobVK) {
		t.Fatal("unrelated view key incorrectly claims ownership")
	}
	// Value() under a non-owning key must not panic and must not return the
	// real value - it silently returns 0 rather than surfacing a distinct
	// decryption-failure error.
	if got := note.Value(&bobVK); got == 500 {
		t.Fatal("decryption under the wrong key recovered the real value")
	}
}

func TestNoteHashDistinguishesIndependentMints(t *testing.T) {
	pk := SecretKeyFromSeed([]byte("alice")).PublicKey()
	n1, _ := Output(KindObfuscated, pk, 10)
	n2, _ := Output(KindObfuscated, pk, 10)

	h1 := n1.Hash()
	h2 := n2.Hash()
	if h1.Equal(&h2) {
		t.Fatal("two independently minted notes hashed identically")
	}
}
