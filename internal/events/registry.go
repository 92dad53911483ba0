package events

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"chainSync/internal/dex"
	"chainSync/internal/model"
)

// Signature is one registry entry. A nil Addresses set matches any emitter.
type Signature struct {
	Kind      model.EventKind
	SubKind   model.EventSubKind
	Topic     common.Hash
	NumTopics int
	Addresses map[common.Address]struct{}
}

func (s Signature) matches(log types.Log) bool {
	if len(log.Topics) != s.NumTopics || log.Topics[0] != s.Topic {
		return false
	}
	if s.Addresses == nil {
		return true
	}
	_, ok := s.Addresses[log.Address]
	return ok
}

// Registry is the set of known event signatures.
type Registry struct {
	entries []Signature
}

func NewRegistry(entries ...Signature) *Registry {
	return &Registry{entries: entries}
}

// Add appends an entry.
func (r *Registry) Add(sig Signature) {
	r.entries = append(r.entries, sig)
}

// Entries returns a copy of the registered signatures.
func (r *Registry) Entries() []Signature {
	out := make([]Signature, len(r.entries))
	copy(out, r.entries)
	return out
}

// Match returns every entry the log satisfies, in registration order.
func (r *Registry) Match(log types.Log) []Signature {
	if len(log.Topics) == 0 {
		return nil
	}
	var out []Signature
	for _, sig := range r.entries {
		if sig.matches(log) {
			out = append(out, sig)
		}
	}
	return out
}

// RegistryConfig restricts address-bound entries.
type RegistryConfig struct {
	CollectionFactories []common.Address
}

// DefaultRegistry builds the token transfer and collection.xyz signatures.
func DefaultRegistry(cfg RegistryConfig) (*Registry, error) {
	erc20, err := dex.ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	erc721, err := dex.ERC721ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc721 abi: %w", err)
	}
	erc1155, err := dex.ERC1155ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc1155 abi: %w", err)
	}
	pool, err := dex.CollectionPoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse collection pool abi: %w", err)
	}
	factory, err := dex.CollectionFactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse collection factory abi: %w", err)
	}

	r := NewRegistry()
	r.Add(fromABI(model.KindERC20, model.SubKindERC20Transfer, erc20.Events["Transfer"], nil))
	r.Add(fromABI(model.KindERC721, model.SubKindERC721Transfer, erc721.Events["Transfer"], nil))
	r.Add(fromABI(model.KindERC1155, model.SubKindERC1155TransferSingle, erc1155.Events["TransferSingle"], nil))
	r.Add(fromABI(model.KindERC1155, model.SubKindERC1155TransferBatch, erc1155.Events["TransferBatch"], nil))

	var factories map[common.Address]struct{}
	if len(cfg.CollectionFactories) > 0 {
		factories = make(map[common.Address]struct{}, len(cfg.CollectionFactories))
		for _, addr := range cfg.CollectionFactories {
			factories[addr] = struct{}{}
		}
	}
	r.Add(fromABI(model.KindCollectionXyz, model.SubKindCollectionNewPool, factory.Events["NewPool"], factories))

	poolEvents := []struct {
		subKind model.EventSubKind
		name    string
	}{
		{model.SubKindCollectionAcceptsTokenIDs, "AcceptsTokenIDs"},
		{model.SubKindCollectionSwapNFTInPool, "SwapNFTInPool"},
		{model.SubKindCollectionSwapNFTOutPool, "SwapNFTOutPool"},
		{model.SubKindCollectionSpotPriceUpdate, "SpotPriceUpdate"},
		{model.SubKindCollectionDeltaUpdate, "DeltaUpdate"},
		{model.SubKindCollectionPropsUpdate, "PropsUpdate"},
		{model.SubKindCollectionStateUpdate, "StateUpdate"},
		{model.SubKindCollectionRoyaltyNumeratorUpdate, "RoyaltyNumeratorUpdate"},
		{model.SubKindCollectionRoyaltyRecipientFallbackUpdate, "RoyaltyRecipientFallbackUpdate"},
		{model.SubKindCollectionExternalFilterSet, "ExternalFilterSet"},
		{model.SubKindCollectionFeeUpdate, "FeeUpdate"},
		{model.SubKindCollectionProtocolFeeMultiplierUpdate, "ProtocolFeeMultiplierUpdate"},
		{model.SubKindCollectionCarryFeeMultiplierUpdate, "CarryFeeMultiplierUpdate"},
		{model.SubKindCollectionAssetRecipientChange, "AssetRecipientChange"},
		{model.SubKindCollectionAccruedTradeFeeWithdrawal, "AccruedTradeFeeWithdrawal"},
		{model.SubKindCollectionTokenDeposit, "TokenDeposit"},
		{model.SubKindCollectionTokenWithdrawal, "TokenWithdrawal"},
		{model.SubKindCollectionNFTDeposit, "NFTDeposit"},
		{model.SubKindCollectionNFTWithdrawal, "NFTWithdrawal"},
	}
	for _, ev := range poolEvents {
		event, ok := pool.Events[ev.name]
		if !ok {
			return nil, fmt.Errorf("collection pool abi missing event %s", ev.name)
		}
		r.Add(fromABI(model.KindCollectionXyz, ev.subKind, event, nil))
	}

	return r, nil
}

func fromABI(kind model.EventKind, subKind model.EventSubKind, event abi.Event, addresses map[common.Address]struct{}) Signature {
	numTopics := 1
	for _, input := range event.Inputs {
		if input.Indexed {
			numTopics++
		}
	}
	return Signature{
		Kind:      kind,
		SubKind:   subKind,
		Topic:     event.ID,
		NumTopics: numTopics,
		Addresses: addresses,
	}
}
