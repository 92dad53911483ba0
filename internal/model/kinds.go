package model

// Protocol kinds, in batch bucket order.
const (
	KindERC20            EventKind = "erc20"
	KindERC721           EventKind = "erc721"
	KindERC1155          EventKind = "erc1155"
	KindBlur             EventKind = "blur"
	KindCryptoPunks      EventKind = "cryptopunks"
	KindDecentraland     EventKind = "decentraland"
	KindElement          EventKind = "element"
	KindFoundation       EventKind = "foundation"
	KindLooksRare        EventKind = "looks-rare"
	KindNftx             EventKind = "nftx"
	KindNouns            EventKind = "nouns"
	KindQuixotic         EventKind = "quixotic"
	KindSeaport          EventKind = "seaport"
	KindSudoswap         EventKind = "sudoswap"
	KindSudoswapV2       EventKind = "sudoswap-v2"
	KindCaviarV1         EventKind = "caviar-v1"
	KindWyvern           EventKind = "wyvern"
	KindX2Y2             EventKind = "x2y2"
	KindZeroExV4         EventKind = "zeroex-v4"
	KindZora             EventKind = "zora"
	KindRarible          EventKind = "rarible"
	KindManifold         EventKind = "manifold"
	KindTofu             EventKind = "tofu"
	KindBendDao          EventKind = "bend-dao"
	KindNftTrader        EventKind = "nft-trader"
	KindOkex             EventKind = "okex"
	KindSuperRare        EventKind = "superrare"
	KindZeroExV2         EventKind = "zeroex-v2"
	KindZeroExV3         EventKind = "zeroex-v3"
	KindTreasure         EventKind = "treasure"
	KindLooksRareV2      EventKind = "looks-rare-v2"
	KindBlend            EventKind = "blend"
	KindCollectionXyz    EventKind = "collectionxyz"
	KindPaymentProcessor EventKind = "payment-processor"
	KindThirdweb         EventKind = "thirdweb"
	KindSeadrop          EventKind = "seadrop"
	KindBlurV2           EventKind = "blur-v2"
)

// Token sub-kinds.
const (
	SubKindERC20Transfer         EventSubKind = "erc20-transfer"
	SubKindERC721Transfer        EventSubKind = "erc721-transfer"
	SubKindERC1155TransferSingle EventSubKind = "erc1155-transfer-single"
	SubKindERC1155TransferBatch  EventSubKind = "erc1155-transfer-batch"
)

// collection.xyz sub-kinds.
const (
	SubKindCollectionNewPool                        EventSubKind = "collection-new-pool"
	SubKindCollectionAcceptsTokenIDs                EventSubKind = "collection-accepts-token-ids"
	SubKindCollectionSwapNFTInPool                  EventSubKind = "collection-swap-nft-in-pool"
	SubKindCollectionSwapNFTOutPool                 EventSubKind = "collection-swap-nft-out-pool"
	SubKindCollectionSpotPriceUpdate                EventSubKind = "collection-spot-price-update"
	SubKindCollectionDeltaUpdate                    EventSubKind = "collection-delta-update"
	SubKindCollectionPropsUpdate                    EventSubKind = "collection-props-update"
	SubKindCollectionStateUpdate                    EventSubKind = "collection-state-update"
	SubKindCollectionRoyaltyNumeratorUpdate         EventSubKind = "collection-royalty-numerator-update"
	SubKindCollectionRoyaltyRecipientFallbackUpdate EventSubKind = "collection-royalty-recipient-fallback-update"
	SubKindCollectionExternalFilterSet              EventSubKind = "collection-external-filter-set"
	SubKindCollectionFeeUpdate                      EventSubKind = "collection-fee-update"
	SubKindCollectionProtocolFeeMultiplierUpdate    EventSubKind = "collection-protocol-fee-multiplier-update"
	SubKindCollectionCarryFeeMultiplierUpdate       EventSubKind = "collection-carry-fee-multiplier-update"
	SubKindCollectionAssetRecipientChange           EventSubKind = "collection-asset-recipient-change"
	SubKindCollectionAccruedTradeFeeWithdrawal      EventSubKind = "collection-accrued-trade-fee-withdrawal"
	SubKindCollectionTokenDeposit                   EventSubKind = "collection-token-deposit"
	SubKindCollectionTokenWithdrawal                EventSubKind = "collection-token-withdrawal"
	SubKindCollectionNFTDeposit                     EventSubKind = "collection-nft-deposit"
	SubKindCollectionNFTWithdrawal                  EventSubKind = "collection-nft-withdrawal"
)
