package keys

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

var (
	ErrMissingMnemonic = errors.New("keys: mnemonic not set")
	ErrInvalidMnemonic = errors.New("keys: invalid mnemonic phrase")
	ErrNotInitialized  = errors.New("keys: manager not initialized")
)

// Derivation path m/44'/60'/0'/0/0. Fixed: both chain identities must come
// from the identical key, so the coin type is always the EVM one.
const (
	purpose  = 44
	coinType = 60
)

// AddressPair holds the two encodings of the signer's 20-byte account
// identifier. The Cosmos address bech32-encodes the same bytes as the EVM
// address; it is not an independent SHA-256/RIPEMD-160 hash.
type AddressPair struct {
	EVM    string
	Cosmos string
}

// Manager derives and owns the faucet's single secp256k1 key. One instance
// is constructed at the composition root and shared by both chain pipelines.
type Manager struct {
	mu     sync.RWMutex
	prefix string

	priv          *ecdsa.PrivateKey
	privBytes     []byte
	pubCompressed []byte
	pair          AddressPair
	initialized   bool
}

func NewManager(prefix string) *Manager {
	return &Manager{prefix: prefix}
}

// Initialize validates the mnemonic and derives the key material and address
// pair. Calling it again on an initialized manager is a no-op.
func (m *Manager) Initialize(mnemonic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return ErrMissingMnemonic
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return fmt.Errorf("keys: failed to derive master key: %w", err)
	}

	node := master
	for _, step := range []uint32{
		hdkeychain.HardenedKeyStart + purpose,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart + 0,
		0,
		0,
	} {
		node, err = node.Derive(step)
		if err != nil {
			return fmt.Errorf("keys: failed to derive child key: %w", err)
		}
	}

	btcecPriv, err := node.ECPrivKey()
	if err != nil {
		return fmt.Errorf("keys: failed to extract private key: %w", err)
	}

	// Convert through go-ethereum so the key's Curve is go-ethereum's S256
	// instance; crypto.Sign rejects the same curve under any other identity.
	priv, err := crypto.ToECDSA(btcecPriv.Serialize())
	if err != nil {
		return fmt.Errorf("keys: failed to extract private key: %w", err)
	}

	// EVM address: Keccak-256 over the uncompressed pubkey minus its format
	// byte, last 20 bytes.
	evmAddr := crypto.PubkeyToAddress(priv.PublicKey)

	cosmosAddr, err := bech32.ConvertAndEncode(m.prefix, evmAddr.Bytes())
	if err != nil {
		return fmt.Errorf("keys: failed to encode bech32 address: %w", err)
	}

	m.priv = priv
	m.privBytes = crypto.FromECDSA(priv)
	m.pubCompressed = crypto.CompressPubkey(&priv.PublicKey)
	m.pair = AddressPair{
		EVM:    strings.ToLower(evmAddr.Hex()),
		Cosmos: cosmosAddr,
	}
	m.initialized = true

	return nil
}

// Addresses returns the cached address pair.
func (m *Manager) Addresses() (AddressPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return AddressPair{}, ErrNotInitialized
	}
	return m.pair, nil
}

// PrivateKey returns the signing key. Callers must not retain it past the
// operation being signed.
func (m *Manager) PrivateKey() (*ecdsa.PrivateKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return nil, ErrNotInitialized
	}
	return m.priv, nil
}

// CompressedPublicKey returns a copy of the 33-byte compressed public key.
func (m *Manager) CompressedPublicKey() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return nil, ErrNotInitialized
	}
	pub := make([]byte, len(m.pubCompressed))
	copy(pub, m.pubCompressed)
	return pub, nil
}

// Wipe zeroes the private key material and clears all cached state. The
// manager is unusable afterwards until Initialize is called again.
func (m *Manager) Wipe() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.privBytes {
		m.privBytes[i] = 0
	}
	m.privBytes = nil

	if m.priv != nil {
		m.priv.D.SetInt64(0)
		m.priv = nil
	}

	m.pubCompressed = nil
	m.pair = AddressPair{}
	m.initialized = false
}
