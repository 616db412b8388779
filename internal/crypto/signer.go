package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// --------------------------------------------------------------------------
// EIP-712 type hashes (pre-computed keccak256 of the canonical type strings).
// --------------------------------------------------------------------------

var (
	// EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)
	eip712DomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)

	// Agent(string source,bytes32 connectionId)
	agentTypeHash = ethcrypto.Keccak256(
		[]byte("Agent(string source,bytes32 connectionId)"),
	)
)

// AgentDomain is the EIP-712 domain for the off-chain agent-authorization
// signature. The chain id is fixed for this signing domain only; it is not
// the venue's real chain id, which deliberately scopes signatures to this
// single use. The verifying contract is the zero address because nothing
// verifies this on-chain.
type AgentDomain struct {
	Name              string
	Version           string
	ChainID           uint64
	VerifyingContract common.Address
}

// DefaultAgentDomain returns the exchange agent-signing domain. It is an
// injected configuration value rather than a compile-time constant so tests
// can vary it.
func DefaultAgentDomain() AgentDomain {
	return AgentDomain{
		Name:    "Exchange",
		Version: "1",
		ChainID: 1337,
	}
}

// Separator returns keccak256(abi.encode(typeHash, nameHash, versionHash,
// chainId, verifyingContract)).
func (d AgentDomain) Separator() []byte {
	return ethcrypto.Keccak256(
		concatBytes(
			eip712DomainTypeHash,
			ethcrypto.Keccak256([]byte(d.Name)),
			ethcrypto.Keccak256([]byte(d.Version)),
			bigIntTo32Bytes(new(big.Int).SetUint64(d.ChainID)),
			common.LeftPadBytes(d.VerifyingContract.Bytes(), 32),
		),
	)
}

// AgentSigningHash computes the 32-byte commitment binding an agent key to
// the primary account for one connection id:
//
//	keccak256("\x19\x01" || domainSeparator || structHash(Agent{source, connectionId}))
//
// Pure function, no failure mode: the caller signs the returned digest with
// the primary key and the venue verifies signature plus fields server-side.
func AgentSigningHash(domain AgentDomain, source string, connectionID [32]byte) [32]byte {
	structHash := ethcrypto.Keccak256(
		concatBytes(
			agentTypeHash,
			ethcrypto.Keccak256([]byte(source)),
			connectionID[:],
		),
	)

	var out [32]byte
	copy(out[:], eip712Hash(domain.Separator(), structHash))
	return out
}

// Signature is a 65-byte secp256k1 signature split into the r/s/v fields
// venue payloads carry.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint8  `json:"v"`
}

// Signer signs 32-byte digests with a secp256k1 private key. For delegated
// trading this key is the agent key, not the primary wallet key.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewSigner creates a Signer from a hex-encoded secp256k1 private key.
func NewSigner(privateKeyHex string) (*Signer, error) {
	keyHex := strings.TrimPrefix(privateKeyHex, "0x")
	pk, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("crypto/signer: invalid private key: %w", err)
	}

	return &Signer{
		privateKey: pk,
		address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
	}, nil
}

// Address returns the Ethereum address derived from the signer's private key.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignHash signs a 32-byte digest and returns the split r/s/v signature.
func (s *Signer) SignHash(digest [32]byte) (Signature, error) {
	sig, err := ethcrypto.Sign(digest[:], s.privateKey)
	if err != nil {
		return Signature{}, fmt.Errorf("crypto/signer: signing: %w", err)
	}

	// go-ethereum returns v in {0,1}; venue payloads expect {27,28}.
	v := sig[64]
	if v < 27 {
		v += 27
	}

	return Signature{
		R: "0x" + hex.EncodeToString(sig[:32]),
		S: "0x" + hex.EncodeToString(sig[32:64]),
		V: v,
	}, nil
}

// SignAgent computes the agent commitment for (source, connectionID) and
// signs it in one step.
func (s *Signer) SignAgent(domain AgentDomain, source string, connectionID [32]byte) (Signature, error) {
	return s.SignHash(AgentSigningHash(domain, source, connectionID))
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// eip712Hash computes the final EIP-712 digest:
//
//	keccak256("\x19\x01" || domainSeparator || structHash)
func eip712Hash(domainSep, structHash []byte) []byte {
	return ethcrypto.Keccak256(
		concatBytes(
			[]byte{0x19, 0x01},
			domainSep,
			structHash,
		),
	)
}

// bigIntTo32Bytes returns a 32-byte big-endian representation of n.
func bigIntTo32Bytes(n *big.Int) []byte {
	b := n.Bytes()
	if len(b) >= 32 {
		return b[:32]
	}
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}

// concatBytes concatenates multiple byte slices into one.
func concatBytes(slices ...[]byte) []byte {
	total := 0
	for _, s := range slices {
		total += len(s)
	}
	buf := make([]byte, 0, total)
	for _, s := range slices {
		buf = append(buf, s...)
	}
	return buf
}
