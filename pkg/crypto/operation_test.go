package crypto

import "testing"

func TestOperationDigest_FieldsBound(t *testing.T) {
	base := OperationDigest("user1", "stake_deposit", 500, 1)
	variants := map[string][32]byte{
		"namespace": OperationDigest("user2", "stake_deposit", 500, 1),
		"method":    OperationDigest("user1", "stake_unstake", 500, 1),
		"amount":    OperationDigest("user1", "stake_deposit", 501, 1),
		"nonce":     OperationDigest("user1", "stake_deposit", 500, 2),
		// Length prefixes keep "user1"+"x" distinct from "user1x"+"".
		"boundary": OperationDigest("user1s", "take_deposit", 500, 1),
	}
	for name, d := range variants {
		if d == base {
			t.Errorf("changing %s did not change the digest", name)
		}
	}
	if OperationDigest("user1", "stake_deposit", 500, 1) != base {
		t.Error("digest not deterministic")
	}
}

func TestSignVerifyOperation(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	sig, err := SignOperation(key, "user1", "stake_claimPoints", 0, 7)
	if err != nil {
		t.Fatalf("SignOperation: %v", err)
	}
	if !VerifyOperation(key.PublicKey(), sig, "user1", "stake_claimPoints", 0, 7) {
		t.Fatal("valid operation signature rejected")
	}
	if VerifyOperation(key.PublicKey(), sig, "user1", "stake_claimPoints", 0, 8) {
		t.Error("signature accepted for a different nonce")
	}

	other, _ := GenerateKey()
	if VerifyOperation(other.PublicKey(), sig, "user1", "stake_claimPoints", 0, 7) {
		t.Error("signature accepted for a different key")
	}
}
