package wallet

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

// BIP-39 reference phrase; its "TREZOR" seed is published with the standard.
const vectorMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

const vectorSeedTrezor = "c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04"

func TestGenerateMnemonic(t *testing.T) {
	seen := make(map[string]bool)
	for range 3 {
		phrase, err := GenerateMnemonic()
		if err != nil {
			t.Fatalf("GenerateMnemonic: %v", err)
		}
		if words := strings.Fields(phrase); len(words) != 24 {
			t.Fatalf("%d words, want 24", len(words))
		}
		if !ValidateMnemonic(phrase) {
			t.Fatalf("generated phrase fails validation: %q", phrase)
		}
		if seen[phrase] {
			t.Fatal("GenerateMnemonic repeated a phrase")
		}
		seen[phrase] = true
	}
}

func TestValidateMnemonic(t *testing.T) {
	cases := map[string]bool{
		vectorMnemonic: true,
		"ABANDON abandon abandon abandon\nabandon abandon abandon abandon abandon abandon  abandon about": true,
		"  " + vectorMnemonic + "\t": true,
		strings.Replace(vectorMnemonic, "about", "abandon", 1): false,
		strings.Replace(vectorMnemonic, "about", "klingon", 1): false,
		"abandon": false,
		"":        false,
	}
	for phrase, want := range cases {
		if got := ValidateMnemonic(phrase); got != want {
			t.Errorf("ValidateMnemonic(%q) = %v, want %v", phrase, got, want)
		}
	}
}

func TestNormalizeMnemonic(t *testing.T) {
	got := NormalizeMnemonic(" Abandon\n\nABOUT  ")
	if got != "abandon about" {
		t.Errorf("NormalizeMnemonic = %q", got)
	}
}

func TestSeedFromMnemonic(t *testing.T) {
	seed, err := SeedFromMnemonic(strings.ToUpper(vectorMnemonic), "TREZOR")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	if got := hex.EncodeToString(seed); got != vectorSeedTrezor {
		t.Errorf("seed = %s\nwant   %s", got, vectorSeedTrezor)
	}

	noPass, err := SeedFromMnemonic(vectorMnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic without passphrase: %v", err)
	}
	if hex.EncodeToString(noPass) == vectorSeedTrezor {
		t.Error("passphrase did not change the seed")
	}

	if _, err := SeedFromMnemonic("not valid words here", ""); !errors.Is(err, ErrInvalidMnemonic) {
		t.Errorf("invalid phrase: err = %v, want ErrInvalidMnemonic", err)
	}
}
