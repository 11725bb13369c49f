package wallet_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student-ai-platform/internal/wallet"
	"github.com/student-ai-platform/internal/wallet/wallettest"
)

func TestEnsureNetwork(t *testing.T) {
	ctx := context.Background()

	t.Run("already on network", func(t *testing.T) {
		p := wallettest.NewProvider(wallet.Sepolia.ChainID)
		require.NoError(t, wallet.EnsureNetwork(ctx, p, wallet.Sepolia))
		assert.Empty(t, p.Switches)
	})

	t.Run("known network is switched to", func(t *testing.T) {
		p := wallettest.NewProvider(big.NewInt(1))
		p.Known[wallet.Sepolia.ChainID.String()] = true
		require.NoError(t, wallet.EnsureNetwork(ctx, p, wallet.Sepolia))
		assert.Len(t, p.Switches, 1)
		assert.Empty(t, p.Added)
		assert.Equal(t, 0, p.Chain.Cmp(wallet.Sepolia.ChainID))
	})

	t.Run("unknown network is added then switched to", func(t *testing.T) {
		p := wallettest.NewProvider(big.NewInt(1))
		require.NoError(t, wallet.EnsureNetwork(ctx, p, wallet.Sepolia))
		assert.Len(t, p.Switches, 2)
		require.Len(t, p.Added, 1)
		assert.Equal(t, "Sepolia test network", p.Added[0].Name)
	})

	t.Run("add failure propagates", func(t *testing.T) {
		p := wallettest.NewProvider(big.NewInt(1))
		p.AddErr = errors.New("user closed dialog")
		assert.EqualError(t, wallet.EnsureNetwork(ctx, p, wallet.Sepolia), "user closed dialog")
	})

	t.Run("other switch failure propagates without add", func(t *testing.T) {
		p := wallettest.NewProvider(big.NewInt(1))
		p.SwitchErr = errors.New("boom")
		assert.EqualError(t, wallet.EnsureNetwork(ctx, p, wallet.Sepolia), "boom")
		assert.Empty(t, p.Added)
	})
}
