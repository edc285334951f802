package cosmos

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	cryptocodec "github.com/cosmos/cosmos-sdk/crypto/codec"
	cosmostypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Key type for chains whose Cosmos accounts sign with secp256k1 over
// Keccak-256 instead of the SDK default secp256k1 over SHA-256.
const ethSecp256k1PubKeyTypeURL = "/cosmos.evm.crypto.v1.ethsecp256k1.PubKey"

// SendService builds bank-send transactions for the eth_secp256k1 key type.
type SendService struct {
	cdc       codec.Codec
	chainID   string
	denom     string
	feeAmount math.Int
	gasLimit  uint64
}

func NewSendService(chainID, denom, feeAmount string, gasLimit uint64) (*SendService, error) {
	fee, ok := math.NewIntFromString(feeAmount)
	if !ok {
		return nil, fmt.Errorf("cosmos: invalid fee amount: %s", feeAmount)
	}

	ir := codectypes.NewInterfaceRegistry()
	cryptocodec.RegisterInterfaces(ir)
	banktypes.RegisterInterfaces(ir)

	return &SendService{
		cdc:       codec.NewProtoCodec(ir),
		chainID:   chainID,
		denom:     denom,
		feeAmount: fee,
		gasLimit:  gasLimit,
	}, nil
}

// UnsignedTx carries the canonical pieces needed to sign and assemble a
// transaction.
type UnsignedTx struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	SignBytes     []byte
}

// BuildTransfer constructs the body, auth info and sign-document bytes for a
// single-coin bank send. Addresses are passed through as strings: the chain
// uses a custom bech32 prefix, so they must not be round-tripped through the
// SDK's global-config address codec.
func (s *SendService) BuildTransfer(
	from string,
	to string,
	amount *big.Int,
	pubKeyCompressed []byte,
	accountNumber uint64,
	sequence uint64,
) (*UnsignedTx, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("cosmos: send amount must be positive")
	}

	sendMsg := &banktypes.MsgSend{
		FromAddress: from,
		ToAddress:   to,
		Amount:      cosmostypes.NewCoins(cosmostypes.NewCoin(s.denom, math.NewIntFromBigInt(amount))),
	}

	msgAny, err := codectypes.NewAnyWithValue(sendMsg)
	if err != nil {
		return nil, fmt.Errorf("cosmos: failed to pack send message: %w", err)
	}

	txBody := &tx.TxBody{
		Messages: []*codectypes.Any{msgAny},
		Memo:     "",
	}

	pubKeyAny, err := NewEthSecp256k1Any(pubKeyCompressed)
	if err != nil {
		return nil, err
	}

	authInfo := &tx.AuthInfo{
		SignerInfos: []*tx.SignerInfo{
			{
				PublicKey: pubKeyAny,
				ModeInfo: &tx.ModeInfo{
					Sum: &tx.ModeInfo_Single_{
						Single: &tx.ModeInfo_Single{
							Mode: signing.SignMode_SIGN_MODE_DIRECT,
						},
					},
				},
				Sequence: sequence,
			},
		},
		Fee: &tx.Fee{
			Amount:   cosmostypes.NewCoins(cosmostypes.NewCoin(s.denom, s.feeAmount)),
			GasLimit: s.gasLimit,
		},
	}

	bodyBytes, err := s.cdc.Marshal(txBody)
	if err != nil {
		return nil, fmt.Errorf("cosmos: failed to marshal tx body: %w", err)
	}

	authInfoBytes, err := s.cdc.Marshal(authInfo)
	if err != nil {
		return nil, fmt.Errorf("cosmos: failed to marshal auth info: %w", err)
	}

	signDoc := &tx.SignDoc{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		ChainId:       s.chainID,
		AccountNumber: accountNumber,
	}

	signBytes, err := signDoc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("cosmos: failed to marshal sign doc: %w", err)
	}

	return &UnsignedTx{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		SignBytes:     signBytes,
	}, nil
}

// AssembleTx wraps the signed pieces into raw broadcastable bytes.
func AssembleTx(unsigned *UnsignedTx, signature []byte) ([]byte, error) {
	txRaw := &tx.TxRaw{
		BodyBytes:     unsigned.BodyBytes,
		AuthInfoBytes: unsigned.AuthInfoBytes,
		Signatures:    [][]byte{signature},
	}

	txBytes, err := txRaw.Marshal()
	if err != nil {
		return nil, fmt.Errorf("cosmos: failed to marshal raw tx: %w", err)
	}
	return txBytes, nil
}

// NewEthSecp256k1Any wraps a compressed public key in an Any with the custom
// key type URL. The value is hand-encoded (field 1, wire type 2: tag 0x0A,
// one length byte, then the 33 raw key bytes) instead of going through the
// SDK's secp256k1.PubKey wrapper, which would tag it with the wrong type.
func NewEthSecp256k1Any(pubKeyCompressed []byte) (*codectypes.Any, error) {
	if len(pubKeyCompressed) != 33 {
		return nil, fmt.Errorf("cosmos: invalid pubkey length: expected 33 bytes, got %d", len(pubKeyCompressed))
	}

	value := make([]byte, 0, 2+len(pubKeyCompressed))
	value = append(value, 0x0A, byte(len(pubKeyCompressed)))
	value = append(value, pubKeyCompressed...)

	return &codectypes.Any{
		TypeUrl: ethSecp256k1PubKeyTypeURL,
		Value:   value,
	}, nil
}

// SignEthSecp256k1 signs sign-document bytes the eth_secp256k1 way: the
// digest is Keccak-256, not SHA-256, and the signature is the 64-byte r‖s
// concatenation with no recovery byte and no DER framing.
func SignEthSecp256k1(signBytes []byte, priv *ecdsa.PrivateKey) ([]byte, error) {
	digest := ethcrypto.Keccak256(signBytes)

	sig, err := ethcrypto.Sign(digest, priv)
	if err != nil {
		return nil, fmt.Errorf("cosmos: failed to sign: %w", err)
	}

	// crypto.Sign returns r ‖ s ‖ v; the recovery byte is dropped.
	return sig[:64], nil
}
