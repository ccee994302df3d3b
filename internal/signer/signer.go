// Package signer implements EIP-712 signing for Polymarket's CLOB exchange:
// the L1 "ClobAuth" attestation needed to authenticate, and the twelve-field
// Order struct needed to place a live order. Neither is called by the scan
// or paper commands, and no order is ever submitted; both are carried so a
// live-execution path can reuse them verbatim.
//
// Grounded on exchange/auth.go's signClobAuth/SignTypedData for the
// domain-separator and typed-data framing, generalized with a second
// primary type (Order) whose field encoding follows
// original_source/src/signer/order.rs's compute_order_struct_hash.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"cross-price-arb/internal/config"
	"cross-price-arb/pkg/types"
)

// Signer holds the EOA used to authenticate with and sign orders for the
// CLOB exchange.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	funder     common.Address
	chainID    *big.Int
	sigType    types.SignatureType
}

// FromPrivateKey builds a Signer from wallet configuration. A missing or
// malformed private key is a Config error (spec.md §7): fatal at startup,
// never surfaced mid-run.
func FromPrivateKey(cfg config.WalletConfig) (*Signer, error) {
	keyHex := cfg.PrivateKey
	if len(keyHex) >= 2 && keyHex[:2] == "0x" {
		keyHex = keyHex[2:]
	}

	privateKey, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("signer: parse private key: %w", err)
	}

	address := crypto.PubkeyToAddress(privateKey.PublicKey)
	funder := address
	if cfg.FunderAddress != "" {
		funder = common.HexToAddress(cfg.FunderAddress)
	}

	return &Signer{
		privateKey: privateKey,
		address:    address,
		funder:     funder,
		chainID:    big.NewInt(int64(cfg.ChainID)),
		sigType:    types.SignatureType(cfg.SignatureType),
	}, nil
}

// Address returns the signer's Ethereum address.
func (s *Signer) Address() common.Address { return s.address }

// SignClobAuth produces the "0x"-prefixed hex signature required by the
// L1 ClobAuth domain to attest wallet ownership.
func (s *Signer) SignClobAuth(timestamp string, nonce int64) (string, error) {
	sig, err := s.signTypedData(
		&apitypes.TypedDataDomain{
			Name:    "ClobAuthDomain",
			Version: "1",
			ChainId: (*ethmath.HexOrDecimal256)(new(big.Int).Set(s.chainID)),
		},
		apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"ClobAuth": {
				{Name: "address", Type: "address"},
				{Name: "timestamp", Type: "string"},
				{Name: "nonce", Type: "uint256"},
				{Name: "message", Type: "string"},
			},
		},
		apitypes.TypedDataMessage{
			"address":   s.address.Hex(),
			"timestamp": timestamp,
			"nonce":     fmt.Sprintf("%d", nonce),
			"message":   "This message attests that I control the given wallet",
		},
		"ClobAuth",
	)
	if err != nil {
		return "", fmt.Errorf("sign clob auth: %w", err)
	}
	return "0x" + common.Bytes2Hex(sig), nil
}

// exchangeDomainName/Version match the CTF exchange contract's EIP-712
// domain, verifiers for a live order must match exactly.
const (
	exchangeDomainName    = "Polymarket CTF Exchange"
	exchangeDomainVersion = "1"
)

// orderTypes is the EIP-712 type set for the twelve-field Order struct.
var orderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Order": {
		{Name: "salt", Type: "uint256"},
		{Name: "maker", Type: "address"},
		{Name: "signer", Type: "address"},
		{Name: "taker", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "makerAmount", Type: "uint256"},
		{Name: "takerAmount", Type: "uint256"},
		{Name: "expiration", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "feeRateBps", Type: "uint256"},
		{Name: "side", Type: "uint8"},
		{Name: "signatureType", Type: "uint8"},
	},
}

// SignOrder signs the twelve-field Order struct used to place a live order
// on the CTF exchange, given the contract address orders verify against.
// Unused by paper trading; kept for a future live-execution path.
func (s *Signer) SignOrder(order types.OrderSignData, verifyingContract common.Address) (string, error) {
	sig, err := s.signTypedData(
		&apitypes.TypedDataDomain{
			Name:              exchangeDomainName,
			Version:           exchangeDomainVersion,
			ChainId:           (*ethmath.HexOrDecimal256)(new(big.Int).Set(s.chainID)),
			VerifyingContract: verifyingContract.Hex(),
		},
		orderTypes,
		apitypes.TypedDataMessage{
			"salt":          order.Salt,
			"maker":         order.Maker,
			"signer":        order.Signer,
			"taker":         order.Taker,
			"tokenId":       order.TokenID,
			"makerAmount":   order.MakerAmount,
			"takerAmount":   order.TakerAmount,
			"expiration":    order.Expiration,
			"nonce":         order.Nonce,
			"feeRateBps":    order.FeeRateBps,
			"side":          fmt.Sprintf("%d", order.OrderSide),
			"signatureType": fmt.Sprintf("%d", order.SignatureType),
		},
		"Order",
	)
	if err != nil {
		return "", fmt.Errorf("sign order: %w", err)
	}
	return "0x" + common.Bytes2Hex(sig), nil
}

// signTypedData hashes and signs an EIP-712 typed-data payload, adjusting
// the recovery byte to Ethereum's 27/28 convention.
func (s *Signer) signTypedData(
	domain *apitypes.TypedDataDomain,
	typesDef apitypes.Types,
	message apitypes.TypedDataMessage,
	primaryType string,
) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types:       typesDef,
		PrimaryType: primaryType,
		Domain:      *domain,
		Message:     message,
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("typed data hash: %w", err)
	}

	sig, err := crypto.Sign(hash, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign typed data: %w", err)
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}
