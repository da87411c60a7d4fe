package app

import (
	"math/big"

	"github.com/fd1az/tonswap/business/swap/domain"
	"github.com/fd1az/tonswap/internal/asset"
	"github.com/fd1az/tonswap/internal/config"
)

// DeDust mainnet settlement defaults.
const (
	DefaultVaultAddress        = "EQDa4VOnTYlLvDJ0gZjNYm5PXfSmmtL6Vs6A_CZEtXCNICq_"
	DefaultFactoryAddress      = "EQBfBWT7X2BHg9tXAxzhz2aKiNTU1tpt5NsiK0uSDW_YAJ67"
	DefaultJettonToNativeValue = 300_000_000
	DefaultJettonToJettonValue = 500_000_000
)

// Settlement holds the contracts and fee buffers instructions are built for.
type Settlement struct {
	Vault   string
	Factory string
	// Native value attached to jetton transfers, covering forward fees.
	JettonToNativeValue *big.Int
	JettonToJettonValue *big.Int
}

// SettlementFromConfig reads the settlement section, keeping defaults for
// empty or unparsable values.
func SettlementFromConfig(cfg config.SettlementConfig) Settlement {
	s := Settlement{
		Vault:               cfg.VaultAddress,
		Factory:             cfg.FactoryAddress,
		JettonToNativeValue: big.NewInt(DefaultJettonToNativeValue),
		JettonToJettonValue: big.NewInt(DefaultJettonToJettonValue),
	}
	if s.Vault == "" {
		s.Vault = DefaultVaultAddress
	}
	if s.Factory == "" {
		s.Factory = DefaultFactoryAddress
	}
	if v, err := asset.ParseUnits(cfg.JettonToNativeValue); err == nil {
		s.JettonToNativeValue = v
	}
	if v, err := asset.ParseUnits(cfg.JettonToJettonValue); err == nil {
		s.JettonToJettonValue = v
	}
	return s
}

// Intent is a validated swap request. From and To are never both native.
type Intent struct {
	From, To    asset.Asset
	Amount      *big.Int
	MinReceived *big.Int
	Sender      string
}

// BuildTransaction returns the instruction for in.
//
//	native -> jetton: TON to the vault with a swap payload
//	jetton -> native: jetton transfer to the vault forwarding a swap
//	jetton -> jetton: jetton transfer to the factory forwarding a swap
func BuildTransaction(s Settlement, in Intent) domain.Transaction {
	minOut := asset.NewUnits(in.MinReceived)

	if in.From.IsNative() {
		return domain.Transaction{
			To:    s.Vault,
			Value: asset.NewUnits(in.Amount),
			Payload: domain.NativeSwapPayload{
				Op:          domain.OpSwap,
				PoolAddress: in.To.Address(),
				MinOut:      minOut,
				Recipient:   in.Sender,
			},
		}
	}

	if in.To.IsNative() {
		return domain.Transaction{
			To:    in.From.Address(),
			Value: asset.NewUnits(s.JettonToNativeValue),
			Payload: domain.JettonTransferPayload{
				Op:          domain.OpTransfer,
				Destination: s.Vault,
				Amount:      asset.NewUnits(in.Amount),
				ForwardPayload: domain.ForwardPayload{
					Op:        domain.OpSwap,
					MinOut:    minOut,
					Recipient: in.Sender,
				},
			},
		}
	}

	return domain.Transaction{
		To:    in.From.Address(),
		Value: asset.NewUnits(s.JettonToJettonValue),
		Payload: domain.JettonTransferPayload{
			Op:          domain.OpTransfer,
			Destination: s.Factory,
			Amount:      asset.NewUnits(in.Amount),
			ForwardPayload: domain.ForwardPayload{
				Op:          domain.OpSwap,
				PoolAddress: in.To.Address(),
				MinOut:      minOut,
				Recipient:   in.Sender,
			},
		},
	}
}
