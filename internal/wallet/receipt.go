package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/logging"
	"github.com/student-ai-platform/internal/retry"
)

// ReceiptReader looks up mined transactions
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// WaitForReceipt polls for the receipt of hash with exponential backoff.
// A nil config uses retry.ReceiptPollConfig. A mined but failed
// transaction returns its receipt together with a revert error.
func WaitForReceipt(ctx context.Context, backend ReceiptReader, hash common.Hash, config *retry.RetryConfig) (*types.Receipt, error) {
	if config == nil {
		config = retry.ReceiptPollConfig()
	}
	logger := logging.FromContext(ctx).WithField("txHash", hash.Hex())

	var receipt *types.Receipt
	err := retry.Do(ctx, config, func(ctx context.Context, attempt int) error {
		r, err := backend.TransactionReceipt(ctx, hash)
		if err != nil {
			if !errors.Is(err, ethereum.NotFound) {
				logger.WithError(err).WithField("attempt", attempt).Debug("Receipt lookup failed")
			}
			return err
		}
		receipt = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("transaction %s was not mined: %w", hash.Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, apperrors.NewRevertError("", fmt.Errorf("transaction %s reverted", hash.Hex()))
	}
	return receipt, nil
}
