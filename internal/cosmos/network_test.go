package cosmos

import (
	"context"
	"io"
	"math/big"
	"sync"
	"testing"

	"github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/basementnodes/faucet/internal/keys"
)

const testMnemonic = "test test test test test test test test test test test junk"

type mockLCD struct {
	mu        sync.Mutex
	account   AccountState
	submitted [][]byte
	rejectSeq map[uint64]*RejectedError
}

func (m *mockLCD) GetAccount(ctx context.Context, address string) (AccountState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account, nil
}

func (m *mockLCD) GetBalances(ctx context.Context, address string) ([]Coin, error) {
	return nil, nil
}

func (m *mockLCD) DenomBalance(ctx context.Context, address, denom string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (m *mockLCD) BroadcastTx(ctx context.Context, txBytes []byte) (*TxResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rej, ok := m.rejectSeq[sequenceOf(txBytes)]; ok {
		return nil, rej
	}

	m.submitted = append(m.submitted, txBytes)
	return &TxResponse{TxHash: "HASH", Height: 1, GasUsed: 1, GasWanted: 1}, nil
}

// sequenceOf decodes the signer sequence out of raw tx bytes.
func sequenceOf(txBytes []byte) uint64 {
	var raw tx.TxRaw
	if err := raw.Unmarshal(txBytes); err != nil {
		panic(err)
	}
	var authInfo tx.AuthInfo
	if err := authInfo.Unmarshal(raw.AuthInfoBytes); err != nil {
		panic(err)
	}
	return authInfo.SignerInfos[0].Sequence
}

func newTestNetwork(t *testing.T, lcd LCDClient) *Network {
	t.Helper()

	km := keys.NewManager("rai")
	require.NoError(t, km.Initialize(testMnemonic))

	send, err := NewSendService("raitestnet_77701-1", "arai", "5000", 200000)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &Network{
		client: lcd,
		send:   send,
		keys:   km,
		logger: logger,
	}
}

// Two concurrent sends that both read the same on-chain sequence must not
// submit the same sequence number: the second must use the first plus one.
func TestSend_ConcurrentSequenceSerialization(t *testing.T) {
	lcd := &mockLCD{account: AccountState{AccountNumber: 5, Sequence: 7}}
	network := newTestNetwork(t, lcd)

	errCh := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := network.Send(context.Background(), "rai1recipient", big.NewInt(1000))
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	require.Len(t, lcd.submitted, 2)

	sequences := map[uint64]bool{
		sequenceOf(lcd.submitted[0]): true,
		sequenceOf(lcd.submitted[1]): true,
	}
	require.True(t, sequences[7], "first transaction should use the fetched sequence")
	require.True(t, sequences[8], "second transaction should use the fetched sequence plus one")
}

func TestSend_LocalSequenceOutrunsLaggingChain(t *testing.T) {
	lcd := &mockLCD{account: AccountState{AccountNumber: 5, Sequence: 7}}
	network := newTestNetwork(t, lcd)

	for i := 0; i < 3; i++ {
		_, err := network.Send(context.Background(), "rai1recipient", big.NewInt(1000))
		require.NoError(t, err)
	}

	require.Len(t, lcd.submitted, 3)
	require.Equal(t, uint64(7), sequenceOf(lcd.submitted[0]))
	require.Equal(t, uint64(8), sequenceOf(lcd.submitted[1]))
	require.Equal(t, uint64(9), sequenceOf(lcd.submitted[2]))
}

func TestSend_RejectionResetsLocalSequence(t *testing.T) {
	lcd := &mockLCD{
		account:   AccountState{AccountNumber: 5, Sequence: 7},
		rejectSeq: map[uint64]*RejectedError{8: {Code: 32, RawLog: "account sequence mismatch"}},
	}
	network := newTestNetwork(t, lcd)

	// First send uses sequence 7 and advances the local counter to 8.
	_, err := network.Send(context.Background(), "rai1recipient", big.NewInt(1000))
	require.NoError(t, err)

	// Second send uses 8 and is rejected, which must drop the local view.
	_, err = network.Send(context.Background(), "rai1recipient", big.NewInt(1000))
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)

	// Third send falls back to the chain-reported sequence.
	_, err = network.Send(context.Background(), "rai1recipient", big.NewInt(1000))
	require.NoError(t, err)

	require.Len(t, lcd.submitted, 2)
	require.Equal(t, uint64(7), sequenceOf(lcd.submitted[0]))
	require.Equal(t, uint64(7), sequenceOf(lcd.submitted[1]))
}

func TestSend_WipedSignerFails(t *testing.T) {
	lcd := &mockLCD{account: AccountState{}}
	network := newTestNetwork(t, lcd)
	network.keys.Wipe()

	_, err := network.Send(context.Background(), "rai1recipient", big.NewInt(1))
	require.ErrorIs(t, err, keys.ErrNotInitialized)
}
