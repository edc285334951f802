package cosmos

import (
	"math/big"
	"testing"

	"github.com/cosmos/cosmos-sdk/types/tx"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func testPubKey(t *testing.T) ([]byte, []byte) {
	t.Helper()
	priv, err := ethcrypto.HexToECDSA("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)
	return ethcrypto.CompressPubkey(&priv.PublicKey), ethcrypto.FromECDSAPub(&priv.PublicKey)
}

func TestNewEthSecp256k1Any(t *testing.T) {
	pub, _ := testPubKey(t)

	any, err := NewEthSecp256k1Any(pub)
	require.NoError(t, err)

	require.Equal(t, "/cosmos.evm.crypto.v1.ethsecp256k1.PubKey", any.TypeUrl)

	// Field 1, wire type 2, one length byte, then the raw 33 key bytes.
	require.Len(t, any.Value, 35)
	require.Equal(t, byte(0x0A), any.Value[0])
	require.Equal(t, byte(33), any.Value[1])
	require.Equal(t, pub, any.Value[2:])
}

func TestNewEthSecp256k1Any_RejectsBadLength(t *testing.T) {
	_, uncompressed := testPubKey(t)
	_, err := NewEthSecp256k1Any(uncompressed)
	require.Error(t, err)
}

func TestBuildTransfer(t *testing.T) {
	pub, _ := testPubKey(t)

	send, err := NewSendService("raitestnet_77701-1", "arai", "5000", 200000)
	require.NoError(t, err)

	amount, _ := new(big.Int).SetString("10000000000000000000", 10)
	unsigned, err := send.BuildTransfer("rai1sender", "rai1recipient", amount, pub, 42, 7)
	require.NoError(t, err)

	var body tx.TxBody
	require.NoError(t, body.Unmarshal(unsigned.BodyBytes))
	require.Len(t, body.Messages, 1)
	require.Equal(t, "/cosmos.bank.v1beta1.MsgSend", body.Messages[0].TypeUrl)

	var msg banktypes.MsgSend
	require.NoError(t, msg.Unmarshal(body.Messages[0].Value))
	require.Equal(t, "rai1sender", msg.FromAddress)
	require.Equal(t, "rai1recipient", msg.ToAddress)
	require.Len(t, msg.Amount, 1)
	require.Equal(t, "arai", msg.Amount[0].Denom)
	require.Equal(t, "10000000000000000000", msg.Amount[0].Amount.String())

	var authInfo tx.AuthInfo
	require.NoError(t, authInfo.Unmarshal(unsigned.AuthInfoBytes))
	require.Len(t, authInfo.SignerInfos, 1)
	require.Equal(t, uint64(7), authInfo.SignerInfos[0].Sequence)
	require.Equal(t, "/cosmos.evm.crypto.v1.ethsecp256k1.PubKey", authInfo.SignerInfos[0].PublicKey.TypeUrl)
	require.Equal(t, uint64(200000), authInfo.Fee.GasLimit)
	require.Equal(t, "5000", authInfo.Fee.Amount[0].Amount.String())

	var signDoc tx.SignDoc
	require.NoError(t, signDoc.Unmarshal(unsigned.SignBytes))
	require.Equal(t, unsigned.BodyBytes, signDoc.BodyBytes)
	require.Equal(t, unsigned.AuthInfoBytes, signDoc.AuthInfoBytes)
	require.Equal(t, "raitestnet_77701-1", signDoc.ChainId)
	require.Equal(t, uint64(42), signDoc.AccountNumber)
}

func TestBuildTransfer_RejectsNonPositiveAmount(t *testing.T) {
	pub, _ := testPubKey(t)
	send, err := NewSendService("chain-1", "arai", "5000", 200000)
	require.NoError(t, err)

	_, err = send.BuildTransfer("rai1a", "rai1b", big.NewInt(0), pub, 0, 0)
	require.Error(t, err)
	_, err = send.BuildTransfer("rai1a", "rai1b", nil, pub, 0, 0)
	require.Error(t, err)
}

func TestSignEthSecp256k1(t *testing.T) {
	priv, err := ethcrypto.HexToECDSA("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)

	signBytes := []byte("canonical sign document bytes")

	sig, err := SignEthSecp256k1(signBytes, priv)
	require.NoError(t, err)

	// Exactly r ‖ s, each 32 bytes, no recovery byte.
	require.Len(t, sig, 64)

	// The digest must be Keccak-256 of the sign bytes, not SHA-256.
	digest := ethcrypto.Keccak256(signBytes)
	pub := ethcrypto.CompressPubkey(&priv.PublicKey)
	require.True(t, ethcrypto.VerifySignature(pub, digest, sig))
}

func TestSignEthSecp256k1_Deterministic(t *testing.T) {
	priv, err := ethcrypto.HexToECDSA("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)

	first, err := SignEthSecp256k1([]byte("same input"), priv)
	require.NoError(t, err)
	second, err := SignEthSecp256k1([]byte("same input"), priv)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestAssembleTx(t *testing.T) {
	unsigned := &UnsignedTx{
		BodyBytes:     []byte{1, 2},
		AuthInfoBytes: []byte{3, 4},
	}
	sig := make([]byte, 64)

	txBytes, err := AssembleTx(unsigned, sig)
	require.NoError(t, err)

	var raw tx.TxRaw
	require.NoError(t, raw.Unmarshal(txBytes))
	require.Equal(t, unsigned.BodyBytes, raw.BodyBytes)
	require.Equal(t, unsigned.AuthInfoBytes, raw.AuthInfoBytes)
	require.Len(t, raw.Signatures, 1)
	require.Equal(t, sig, raw.Signatures[0])
}
