package indexer

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"chainSync/internal/chain"
	"chainSync/internal/dex"
	"chainSync/internal/events"
	"chainSync/internal/model"
)

type fakeChain struct {
	blocks    map[uint64]*types.Block
	receipts  map[common.Hash][]*types.Receipt
	traces    map[uint64][]chain.TxTrace
	txTraces  map[common.Hash]*chain.CallFrame
	blockErr  error
	traceRPCs int
}

func (f *fakeChain) BlockByNumber(ctx context.Context, number uint64) (*types.Block, error) {
	if f.blockErr != nil {
		return nil, f.blockErr
	}
	block, ok := f.blocks[number]
	if !ok {
		return nil, ethereum.NotFound
	}
	return block, nil
}

func (f *fakeChain) BlockReceipts(ctx context.Context, block *types.Block) ([]*types.Receipt, error) {
	return f.receipts[block.Hash()], nil
}

func (f *fakeChain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

func (f *fakeChain) BlockTraces(ctx context.Context, number uint64) ([]chain.TxTrace, error) {
	return f.traces[number], nil
}

func (f *fakeChain) TransactionTrace(ctx context.Context, txHash common.Hash) (*chain.CallFrame, error) {
	f.traceRPCs++
	frame, ok := f.txTraces[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return frame, nil
}

type memStore struct {
	mu     sync.Mutex
	blocks []model.Block
	txs    []model.Transaction
	logs   []model.LogRecord
	traces map[common.Hash]chain.CallFrame
}

func newMemStore() *memStore {
	return &memStore{traces: make(map[common.Hash]chain.CallFrame)}
}

func (m *memStore) SaveBlock(ctx context.Context, block model.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.blocks {
		if b.Hash == block.Hash {
			return nil
		}
	}
	m.blocks = append(m.blocks, block)
	return nil
}

func (m *memStore) SaveTransactions(ctx context.Context, txs []model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append(m.txs, txs...)
	return nil
}

func (m *memStore) SaveLogs(ctx context.Context, logs []model.LogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, logs...)
	return nil
}

func (m *memStore) SaveTraces(ctx context.Context, blockNumber uint64, blockHash common.Hash, traces []chain.TxTrace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range traces {
		m.traces[t.TxHash] = t.Result
	}
	return nil
}

func (m *memStore) GetTrace(ctx context.Context, txHash common.Hash) (*chain.CallFrame, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	frame, ok := m.traces[txHash]
	if !ok {
		return nil, false, nil
	}
	return &frame, true, nil
}

type memSink struct {
	datas []*model.OnChainData
}

func (s *memSink) PutOnChainData(ctx context.Context, batch []*model.OnChainData) error {
	s.datas = append(s.datas, batch...)
	return nil
}

var testChainID = big.NewInt(1)

// buildTransferBlock returns a block with one signed transaction whose
// receipt carries one ERC20 Transfer log.
func buildTransferBlock(t *testing.T, number uint64) (*types.Block, []*types.Receipt, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	sender := crypto.PubkeyToAddress(key.PublicKey)
	token := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	tx, err := types.SignNewTx(key, types.LatestSignerForChainID(testChainID), &types.LegacyTx{
		Nonce:    0,
		To:       &token,
		Value:    big.NewInt(0),
		Gas:      50_000,
		GasPrice: big.NewInt(1),
	})
	if err != nil {
		t.Fatalf("sign tx: %v", err)
	}

	header := &types.Header{
		Number:     new(big.Int).SetUint64(number),
		Time:       1_700_000_000,
		Difficulty: big.NewInt(0),
		GasLimit:   30_000_000,
	}
	block := types.NewBlockWithHeader(header).WithBody([]*types.Transaction{tx}, nil)

	erc20, err := dex.ERC20ABI()
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}
	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	receipt := &types.Receipt{
		Status:  types.ReceiptStatusSuccessful,
		TxHash:  tx.Hash(),
		GasUsed: 21_000,
		Logs: []*types.Log{{
			Address: token,
			Topics: []common.Hash{
				erc20.Events["Transfer"].ID,
				common.BytesToHash(sender.Bytes()),
				common.BytesToHash(to.Bytes()),
			},
			Data:        math.U256Bytes(big.NewInt(1000)),
			BlockNumber: number,
			TxHash:      tx.Hash(),
			BlockHash:   block.Hash(),
			Index:       0,
		}},
	}
	return block, []*types.Receipt{receipt}, sender
}

func newTestSyncer(t *testing.T, c *fakeChain, store *memStore, sink *memSink, syncTraces bool) *Syncer {
	t.Helper()
	registry, err := events.DefaultRegistry(events.RegistryConfig{})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	transfers, err := dex.NewTransferHandler(model.KindERC20)
	if err != nil {
		t.Fatalf("transfer handler: %v", err)
	}
	s, err := NewSyncer(SyncConfig{ChainID: testChainID, SyncTraces: syncTraces}, SyncerDeps{
		Chain:      c,
		Store:      store,
		Classifier: events.NewClassifier(registry, nil),
		Handlers:   dex.NewRegistry(transfers),
		Sink:       sink,
	})
	if err != nil {
		t.Fatalf("new syncer: %v", err)
	}
	return s
}

func TestSyncBlockPersistsAndDispatches(t *testing.T) {
	block, receipts, sender := buildTransferBlock(t, 10)
	c := &fakeChain{
		blocks:   map[uint64]*types.Block{10: block},
		receipts: map[common.Hash][]*types.Receipt{block.Hash(): receipts},
	}
	store := newMemStore()
	sink := &memSink{}
	s := newTestSyncer(t, c, store, sink, false)

	if err := s.SyncBlock(context.Background(), 10); err != nil {
		t.Fatalf("sync block: %v", err)
	}

	if len(store.blocks) != 1 || store.blocks[0].Hash != block.Hash() || store.blocks[0].TransactionCount != 1 {
		t.Fatalf("unexpected blocks %+v", store.blocks)
	}
	if len(store.txs) != 1 || store.txs[0].From != sender || store.txs[0].GasUsed != 21_000 || store.txs[0].Status != 1 {
		t.Fatalf("unexpected txs %+v", store.txs)
	}
	if len(store.logs) != 1 || store.logs[0].Address != "0x00000000000000000000000000000000000000aa" {
		t.Fatalf("unexpected logs %+v", store.logs)
	}

	if len(sink.datas) != 1 {
		t.Fatalf("expected one accumulator, got %d", len(sink.datas))
	}
	transfers := sink.datas[0].FtTransferEvents
	if len(transfers) != 1 || transfers[0].Amount != "1000" || transfers[0].From != sender {
		t.Fatalf("unexpected transfers %+v", transfers)
	}
	if transfers[0].Base.Block != 10 || transfers[0].Base.Timestamp != block.Time() {
		t.Fatalf("unexpected base %+v", transfers[0].Base)
	}
}

func TestSyncBlockIsIdempotent(t *testing.T) {
	block, receipts, _ := buildTransferBlock(t, 11)
	c := &fakeChain{
		blocks:   map[uint64]*types.Block{11: block},
		receipts: map[common.Hash][]*types.Receipt{block.Hash(): receipts},
	}
	store := newMemStore()
	s := newTestSyncer(t, c, store, &memSink{}, false)

	for i := 0; i < 2; i++ {
		if err := s.SyncBlock(context.Background(), 11); err != nil {
			t.Fatalf("sync block: %v", err)
		}
	}
	if len(store.blocks) != 1 {
		t.Fatalf("expected one block row, got %d", len(store.blocks))
	}
}

func TestSyncBlockFetchFailurePersistsNothing(t *testing.T) {
	c := &fakeChain{blockErr: errors.New("rpc down")}
	store := newMemStore()
	sink := &memSink{}
	s := newTestSyncer(t, c, store, sink, false)

	if err := s.SyncBlock(context.Background(), 12); err == nil {
		t.Fatalf("expected fetch error")
	}
	if len(store.blocks) != 0 || len(store.txs) != 0 || len(store.logs) != 0 || len(sink.datas) != 0 {
		t.Fatalf("nothing should be persisted")
	}
}

func TestSyncBlockStoresTraces(t *testing.T) {
	block, receipts, _ := buildTransferBlock(t, 13)
	txHash := block.Transactions()[0].Hash()
	c := &fakeChain{
		blocks:   map[uint64]*types.Block{13: block},
		receipts: map[common.Hash][]*types.Receipt{block.Hash(): receipts},
		traces:   map[uint64][]chain.TxTrace{13: {{TxHash: txHash, Result: chain.CallFrame{Type: "CALL"}}}},
	}
	store := newMemStore()
	s := newTestSyncer(t, c, store, &memSink{}, true)

	if err := s.SyncBlock(context.Background(), 13); err != nil {
		t.Fatalf("sync block: %v", err)
	}
	if _, ok := store.traces[txHash]; !ok {
		t.Fatalf("expected trace persisted")
	}
}

func TestTraceCacheFallsBackToNode(t *testing.T) {
	txHash := common.HexToHash("0x01")
	c := &fakeChain{txTraces: map[common.Hash]*chain.CallFrame{txHash: {Type: "CALL"}}}
	store := newMemStore()
	cache := &traceCache{store: store, chain: c, block: 1, blockHash: common.HexToHash("0x02"), logger: zapNop()}

	for i := 0; i < 2; i++ {
		frame, err := cache.TransactionTrace(context.Background(), txHash)
		if err != nil || frame.Type != "CALL" {
			t.Fatalf("unexpected trace %+v err=%v", frame, err)
		}
	}
	if c.traceRPCs != 1 {
		t.Fatalf("expected one node lookup, got %d", c.traceRPCs)
	}
}
