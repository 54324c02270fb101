package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

func TestHash_KnownVectors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"empty input", []byte{}, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"},
		{"hello", []byte("hello"), "ea8f163db38682925e4491c5e58d4bb3506ef8c14eb78a86e908c5624a67200f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hash(tt.input)
			if hex.EncodeToString(got[:]) != tt.want {
				t.Errorf("Hash(%q) = %x, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestHashParts_EqualsJoined(t *testing.T) {
	got := HashParts([]byte("stake"), []byte{}, []byte("-"), []byte("ledger"))
	want := Hash([]byte("stake-ledger"))
	if got != want {
		t.Errorf("HashParts = %x, want %x", got, want)
	}
}

func TestAddressFromPubKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pub := key.PublicKey()
	addr := AddressFromPubKey(pub)

	h := Hash(pub)
	var want types.Address
	copy(want[:], h[:types.AddressSize])
	if addr != want {
		t.Errorf("AddressFromPubKey = %x, want %x", addr, want)
	}
	if key.Address() != addr {
		t.Errorf("PrivateKey.Address() = %x, want %x", key.Address(), addr)
	}
}

func TestDeriveAccountAddress_Deterministic(t *testing.T) {
	owner := types.Address{0x01, 0x02, 0x03}

	a1, b1, ok1 := DeriveAccountAddress("user1", owner)
	a2, b2, ok2 := DeriveAccountAddress("user1", owner)
	if !ok1 || !ok2 {
		t.Fatal("DeriveAccountAddress found no bump")
	}
	if a1 != a2 || b1 != b2 {
		t.Errorf("derivation not deterministic: (%x,%d) vs (%x,%d)", a1, b1, a2, b2)
	}

	// The recorded bump must reconstruct the same address.
	again, ok := CreateAccountAddress("user1", owner, b1)
	if !ok {
		t.Fatal("CreateAccountAddress with derived bump should be off-curve")
	}
	if again != a1 {
		t.Errorf("CreateAccountAddress(bump=%d) = %x, want %x", b1, again, a1)
	}
}

func TestDeriveAccountAddress_FirstOffCurveBump(t *testing.T) {
	owner := types.Address{0xaa}
	_, bump, ok := DeriveAccountAddress("user1", owner)
	if !ok {
		t.Fatal("no bump found")
	}
	// Every bump above the chosen one must have landed on the curve.
	for b := 255; b > int(bump); b-- {
		if _, off := CreateAccountAddress("user1", owner, uint8(b)); off {
			t.Errorf("bump %d is off-curve but derivation chose %d", b, bump)
		}
	}
}

func TestDeriveAccountAddress_Separation(t *testing.T) {
	owner := types.Address{0x42}
	other := types.Address{0x43}

	a, _, _ := DeriveAccountAddress("user1", owner)
	b, _, _ := DeriveAccountAddress("user2", owner)
	c, _, _ := DeriveAccountAddress("user1", other)
	if a == b {
		t.Error("different namespaces produced the same address")
	}
	if a == c {
		t.Error("different owners produced the same address")
	}
}

func TestOnCurve(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	var x types.Hash
	copy(x[:], key.PublicKey()[1:])
	if !onCurve(x) {
		t.Error("x-coordinate of a real public key reported off-curve")
	}

	var overField types.Hash
	for i := range overField {
		overField[i] = 0xff
	}
	if onCurve(overField) {
		t.Error("value above the field prime reported on-curve")
	}
}
