package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// AddressPrefix defines the different types of human-readable address prefixes
// used across the protocol's two asset namespaces.
type AddressPrefix string

const (
	// XLMPrefix marks accounts addressed in the underlying native coin.
	XLMPrefix AddressPrefix = "xlm"
	// SXLMPrefix marks accounts addressed through the receipt-token ledger
	// (module treasuries such as the staking contract's identity).
	SXLMPrefix AddressPrefix = "sxlm"
)

// Address represents a 20-byte account identifier bound to a human-readable
// prefix. It is immutable; all mutating helpers return a new value.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

// NewAddress constructs an address from a 20-byte identifier, returning an
// error if the slice is the wrong length.
func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != 20 {
		return Address{}, fmt.Errorf("crypto: address must be 20 bytes long, got %d", len(b))
	}
	cloned := append([]byte(nil), b...)
	return Address{prefix: prefix, bytes: cloned}, nil
}

// MustNewAddress constructs an address and panics if the input is invalid.
// Reserved for call sites, such as key derivation, where the input length is
// already guaranteed by construction.
func MustNewAddress(prefix AddressPrefix, b []byte) Address {
	addr, err := NewAddress(prefix, b)
	if err != nil {
		panic(err)
	}
	return addr
}

// IsZero reports whether the address has no backing bytes or only zero
// bytes (the unset/zero value used as a sentinel for "no recipient configured").
func (a Address) IsZero() bool {
	if len(a.bytes) == 0 {
		return true
	}
	for _, b := range a.bytes {
		if b != 0 {
			return false
		}
	}
	return true
}

func (a Address) String() string {
	if len(a.bytes) == 0 {
		return ""
	}
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Bytes returns a defensive copy of the address's raw identifier.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a.bytes...)
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// Equal reports whether two addresses carry the same prefix and bytes.
func (a Address) Equal(other Address) bool {
	if a.prefix != other.prefix {
		return false
	}
	if len(a.bytes) != len(other.bytes) {
		return false
	}
	for i := range a.bytes {
		if a.bytes[i] != other.bytes[i] {
			return false
		}
	}
	return true
}

// rlpAddress is the on-the-wire shape of an Address: the trie stores state
// records RLP-encoded, and Address's fields are unexported so it needs an
// explicit codec rather than reflection.
type rlpAddress struct {
	Prefix string
	Bytes  []byte
}

// EncodeRLP implements rlp.Encoder so Address can be embedded directly in
// state records persisted by core/state.
func (a Address) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, rlpAddress{Prefix: string(a.prefix), Bytes: a.bytes})
}

// DecodeRLP implements rlp.Decoder, the counterpart to EncodeRLP.
func (a *Address) DecodeRLP(s *rlp.Stream) error {
	var wire rlpAddress
	if err := s.Decode(&wire); err != nil {
		return err
	}
	a.prefix = AddressPrefix(wire.Prefix)
	a.bytes = wire.Bytes
	return nil
}

// DecodeAddress parses a bech32-encoded address string back into an Address.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}

// --- Key management ---

// PrivateKey wraps a secp256k1 private key used to authenticate calls made
// by a named principal (§4.1's "signer authenticates as owner/from/to").
type PrivateKey struct {
	*ecdsa.PrivateKey
}

// PublicKey wraps the corresponding public key.
type PublicKey struct {
	*ecdsa.PublicKey
}

// GeneratePrivateKey creates a new random secp256k1 keypair.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the raw private key scalar.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

// PubKey derives the public key counterpart.
func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Address derives the XLM-namespace account address for this public key.
func (k *PublicKey) Address() Address {
	addrBytes := crypto.PubkeyToAddress(*k.PublicKey).Bytes()
	return MustNewAddress(XLMPrefix, addrBytes)
}

// PrivateKeyFromBytes reconstructs a private key from its raw scalar bytes.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Sign authenticates a call by signing the 32-byte digest identifying the
// operation and its arguments, standing in for the host's authenticated
// invocation model (§4.1: "the signer authenticates as the named principal").
func (k *PrivateKey) Sign(digest [32]byte) ([]byte, error) {
	return crypto.Sign(digest[:], k.PrivateKey)
}

// Verify checks that sig is a valid signature over digest by the holder of
// addr's private key, recovering the signer's address from the signature.
func Verify(addr Address, digest [32]byte, sig []byte) bool {
	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return false
	}
	recovered := MustNewAddress(addr.Prefix(), crypto.PubkeyToAddress(*pub).Bytes())
	return recovered.Equal(addr)
}
