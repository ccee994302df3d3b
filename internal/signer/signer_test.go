package signer

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"cross-price-arb/internal/config"
	"cross-price-arb/pkg/types"
)

// testPrivateKey is a well-known, publicly documented test key (Hardhat's
// default account #0). Never used against a live contract.
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestFromPrivateKeyDerivesAddress(t *testing.T) {
	t.Parallel()

	s, err := FromPrivateKey(config.WalletConfig{PrivateKey: "0x" + testPrivateKey, ChainID: 137})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Address() == (common.Address{}) {
		t.Error("expected a non-zero derived address")
	}
}

func TestFromPrivateKeyDefaultsFunderToOwnAddress(t *testing.T) {
	t.Parallel()

	s, err := FromPrivateKey(config.WalletConfig{PrivateKey: testPrivateKey, ChainID: 137})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.funder != s.address {
		t.Errorf("expected funder to default to own address, got funder=%s address=%s", s.funder.Hex(), s.address.Hex())
	}
}

func TestFromPrivateKeyHonorsExplicitFunder(t *testing.T) {
	t.Parallel()

	funder := "0x000000000000000000000000000000000000aB"
	s, err := FromPrivateKey(config.WalletConfig{PrivateKey: testPrivateKey, ChainID: 137, FunderAddress: funder})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.funder != common.HexToAddress(funder) {
		t.Errorf("funder = %s, want %s", s.funder.Hex(), funder)
	}
}

func TestFromPrivateKeyRejectsMalformedKey(t *testing.T) {
	t.Parallel()

	if _, err := FromPrivateKey(config.WalletConfig{PrivateKey: "not-hex"}); err == nil {
		t.Error("expected malformed private key to fail")
	}
}

func TestSignClobAuthProducesWellFormedSignature(t *testing.T) {
	t.Parallel()

	s, err := FromPrivateKey(config.WalletConfig{PrivateKey: testPrivateKey, ChainID: 137})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sig, err := s.SignClobAuth("1700000000", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertHexSignature(t, sig)
}

func TestSignClobAuthIsDeterministicForSameInputs(t *testing.T) {
	t.Parallel()

	s, err := FromPrivateKey(config.WalletConfig{PrivateKey: testPrivateKey, ChainID: 137})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sig1, err := s.SignClobAuth("1700000000", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sig2, err := s.SignClobAuth("1700000000", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig1 != sig2 {
		t.Errorf("expected identical inputs to produce identical signatures, got %s vs %s", sig1, sig2)
	}
}

func TestSignOrderProducesWellFormedSignature(t *testing.T) {
	t.Parallel()

	s, err := FromPrivateKey(config.WalletConfig{PrivateKey: testPrivateKey, ChainID: 137})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := types.OrderSignData{
		Salt:          "12345",
		Maker:         s.Address().Hex(),
		Signer:        s.Address().Hex(),
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       "998877",
		MakerAmount:   "1000000",
		TakerAmount:   "2000000",
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		OrderSide:     0,
		SignatureType: types.SigEOA,
	}

	sig, err := s.SignOrder(order, common.HexToAddress("0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertHexSignature(t, sig)
}

func assertHexSignature(t *testing.T, sig string) {
	t.Helper()
	if !strings.HasPrefix(sig, "0x") {
		t.Fatalf("expected 0x-prefixed signature, got %s", sig)
	}
	// 65 signature bytes -> 130 hex chars + "0x".
	if len(sig) != 132 {
		t.Errorf("signature length = %d, want 132", len(sig))
	}
}
