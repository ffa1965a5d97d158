package cryptography

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ParsePrivateKey accepts a hex key with or without the 0x prefix.
func ParsePrivateKey(privateKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// SignMessage signs data with the EIP-191 personal-message prefix, the same
// scheme as a wallet's signMessage. The recovery id is shifted to 27/28.
func SignMessage(data []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	signature, err := crypto.Sign(accounts.TextHash(data), privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	signature[64] += 27
	return signature, nil
}

// SignDigest signs a 32-byte digest as is, without any prefix.
func SignDigest(digest [32]byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	signature, err := crypto.Sign(digest[:], privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}
	signature[64] += 27
	return signature, nil
}

// RecoverMessageSigner returns the address that produced a SignMessage signature.
func RecoverMessageSigner(data []byte, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length: %d", len(signature))
	}
	sig := make([]byte, len(signature))
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(accounts.TextHash(data), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

func VerifySignature(data []byte, signature []byte, signerAddress common.Address) (bool, error) {
	recovered, err := RecoverMessageSigner(data, signature)
	if err != nil {
		return false, err
	}
	return recovered == signerAddress, nil
}
