package crypto

import "testing"

func TestSignVerify(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	sig := Sign(priv, []byte("hello"))
	if err := Verify(pub, []byte("hello"), sig); err != nil {
		t.Errorf("Verify: %v", err)
	}
	if err := Verify(pub, []byte("tampered"), sig); err == nil {
		t.Error("verification of altered data must fail")
	}
	if err := Verify(pub, []byte("hello"), "zz-not-hex"); err == nil {
		t.Error("malformed signature hex must fail")
	}
}

func TestKeyHexRoundTrip(t *testing.T) {
	priv, pub, _ := GenerateKeyPair()

	p2, err := PubKeyFromHex(pub.Hex())
	if err != nil {
		t.Fatalf("PubKeyFromHex: %v", err)
	}
	if p2.Hex() != pub.Hex() {
		t.Error("pubkey hex round trip mismatch")
	}

	k2, err := PrivKeyFromHex(priv.Hex())
	if err != nil {
		t.Fatalf("PrivKeyFromHex: %v", err)
	}
	if k2.Public().Hex() != pub.Hex() {
		t.Error("privkey hex round trip mismatch")
	}

	if _, err := PubKeyFromHex("abcd"); err == nil {
		t.Error("short pubkey must be rejected")
	}
}

func TestAddressDerivation(t *testing.T) {
	_, pub, _ := GenerateKeyPair()
	addr := pub.Address()
	if len(addr) != 40 {
		t.Errorf("address length: got %d want 40", len(addr))
	}
	if addr != pub.Address() {
		t.Error("address derivation must be deterministic")
	}
}
