package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/nftearth/fortune/internal/platform/logging"
	"github.com/nftearth/fortune/internal/usecase"
)

// Config wires the gateway to one RPC endpoint and the deployed
// Fortune and transfer manager contracts.
type Config struct {
	RPCURL              string
	PrivateKeyHex       string
	ChainID             uint64
	FortuneAddress      string
	TransferManager     string
	ReceiptPollInterval time.Duration
	Logger              *logging.Logger
}

// Gateway implements the chain seam over go-ethereum. One signing key
// serves the whole process; it is the session account.
type Gateway struct {
	client          *ethclient.Client
	key             *ecdsa.PrivateKey
	account         common.Address
	chainID         *big.Int
	fortuneAddr     common.Address
	transferManager common.Address
	pollInterval    time.Duration
	logger          *logging.Logger

	fortune  *bind.BoundContract
	manager  *bind.BoundContract
	erc20ABI abi.ABI
	nftABI   abi.ABI
}

func NewGateway(ctx context.Context, cfg Config) (*Gateway, error) {
	if cfg.ChainID == 0 {
		return nil, fmt.Errorf("chain id is required")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	fortuneParsed, err := abi.JSON(strings.NewReader(fortuneABI))
	if err != nil {
		return nil, fmt.Errorf("parse fortune abi: %w", err)
	}
	managerParsed, err := abi.JSON(strings.NewReader(transferManagerABI))
	if err != nil {
		return nil, fmt.Errorf("parse transfer manager abi: %w", err)
	}
	erc20Parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	nftParsed, err := abi.JSON(strings.NewReader(erc721ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc721 abi: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	pollInterval := cfg.ReceiptPollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	fortuneAddr := common.HexToAddress(cfg.FortuneAddress)
	managerAddr := common.HexToAddress(cfg.TransferManager)

	return &Gateway{
		client:          client,
		key:             key,
		account:         crypto.PubkeyToAddress(key.PublicKey),
		chainID:         new(big.Int).SetUint64(cfg.ChainID),
		fortuneAddr:     fortuneAddr,
		transferManager: managerAddr,
		pollInterval:    pollInterval,
		logger:          logger.Named("chain"),
		fortune:         bind.NewBoundContract(fortuneAddr, fortuneParsed, client, client, client),
		manager:         bind.NewBoundContract(managerAddr, managerParsed, client, client, client),
		erc20ABI:        erc20Parsed,
		nftABI:          nftParsed,
	}, nil
}

func (g *Gateway) Close() { g.client.Close() }

func (g *Gateway) Account() string {
	return strings.ToLower(g.account.Hex())
}

func (g *Gateway) ChainID(ctx context.Context) (uint64, error) {
	id, err := g.client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch chain id: %w", err)
	}
	return id.Uint64(), nil
}

// EnsureChain verifies the RPC endpoint serves the expected chain.
// There is no wallet to switch server-side; a mismatch is terminal.
func (g *Gateway) EnsureChain(ctx context.Context, chainID uint64) error {
	actual, err := g.ChainID(ctx)
	if err != nil {
		return err
	}
	if actual != chainID {
		return fmt.Errorf("%w: connected to chain %d, expected %d", usecase.ErrWrongNetwork, actual, chainID)
	}
	return nil
}

func (g *Gateway) HasApprovedOperator(ctx context.Context, account string) (bool, error) {
	var out []any
	err := g.manager.Call(&bind.CallOpts{Context: ctx}, &out, "hasUserApprovedOperator",
		common.HexToAddress(account), g.fortuneAddr)
	if err != nil {
		return false, fmt.Errorf("call hasUserApprovedOperator: %w", err)
	}
	approved, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected hasUserApprovedOperator result %T", out[0])
	}
	return approved, nil
}

func (g *Gateway) GrantOperatorApproval(ctx context.Context) (usecase.TxRef, error) {
	opts, err := g.transactOpts(ctx, nil)
	if err != nil {
		return usecase.TxRef{}, err
	}
	tx, err := g.manager.Transact(opts, "grantApprovals", []common.Address{g.fortuneAddr})
	if err != nil {
		return usecase.TxRef{}, fmt.Errorf("grant operator approval: %w", err)
	}
	return txRef(tx), nil
}

func (g *Gateway) Allowance(ctx context.Context, token, owner string) (*big.Int, error) {
	contract := bind.NewBoundContract(common.HexToAddress(token), g.erc20ABI, g.client, g.client, g.client)
	var out []any
	err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "allowance",
		common.HexToAddress(owner), g.transferManager)
	if err != nil {
		return nil, fmt.Errorf("call allowance: %w", err)
	}
	allowance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected allowance result %T", out[0])
	}
	return allowance, nil
}

func (g *Gateway) ApproveERC20(ctx context.Context, token string, amount *big.Int) (usecase.TxRef, error) {
	opts, err := g.transactOpts(ctx, nil)
	if err != nil {
		return usecase.TxRef{}, err
	}
	contract := bind.NewBoundContract(common.HexToAddress(token), g.erc20ABI, g.client, g.client, g.client)
	tx, err := contract.Transact(opts, "approve", g.transferManager, amount)
	if err != nil {
		return usecase.TxRef{}, fmt.Errorf("approve %s: %w", token, err)
	}
	return txRef(tx), nil
}

func (g *Gateway) IsApprovedForAll(ctx context.Context, collection, owner string) (bool, error) {
	contract := bind.NewBoundContract(common.HexToAddress(collection), g.nftABI, g.client, g.client, g.client)
	var out []any
	err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "isApprovedForAll",
		common.HexToAddress(owner), g.transferManager)
	if err != nil {
		return false, fmt.Errorf("call isApprovedForAll: %w", err)
	}
	approved, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected isApprovedForAll result %T", out[0])
	}
	return approved, nil
}

func (g *Gateway) SetApprovalForAll(ctx context.Context, collection string) (usecase.TxRef, error) {
	opts, err := g.transactOpts(ctx, nil)
	if err != nil {
		return usecase.TxRef{}, err
	}
	contract := bind.NewBoundContract(common.HexToAddress(collection), g.nftABI, g.client, g.client, g.client)
	tx, err := contract.Transact(opts, "setApprovalForAll", g.transferManager, true)
	if err != nil {
		return usecase.TxRef{}, fmt.Errorf("set approval for all %s: %w", collection, err)
	}
	return txRef(tx), nil
}

func (g *Gateway) Deposit(ctx context.Context, roundID uint64, entries []usecase.DepositEntry, value *big.Int) (usecase.TxRef, error) {
	calldata, err := buildDepositCalldata(entries)
	if err != nil {
		return usecase.TxRef{}, err
	}

	opts, err := g.transactOpts(ctx, value)
	if err != nil {
		return usecase.TxRef{}, err
	}
	tx, err := g.fortune.Transact(opts, "deposit", new(big.Int).SetUint64(roundID), calldata)
	if err != nil {
		return usecase.TxRef{}, fmt.Errorf("deposit round %d: %w", roundID, err)
	}
	return txRef(tx), nil
}

func (g *Gateway) WithdrawDeposits(ctx context.Context, roundID uint64, indices []uint64) (usecase.TxRef, error) {
	opts, err := g.transactOpts(ctx, nil)
	if err != nil {
		return usecase.TxRef{}, err
	}
	tx, err := g.fortune.Transact(opts, "withdrawDeposits",
		new(big.Int).SetUint64(roundID), toBigSlice(indices))
	if err != nil {
		return usecase.TxRef{}, fmt.Errorf("withdraw deposits round %d: %w", roundID, err)
	}
	return txRef(tx), nil
}

func (g *Gateway) ClaimPrizes(ctx context.Context, claims []usecase.PrizeClaim) (usecase.TxRef, error) {
	calldata := make([]claimPrizesCalldata, 0, len(claims))
	for _, c := range claims {
		calldata = append(calldata, claimPrizesCalldata{
			RoundId:      new(big.Int).SetUint64(c.RoundID),
			PrizeIndices: toBigSlice(c.PrizeIndices),
		})
	}

	opts, err := g.transactOpts(ctx, nil)
	if err != nil {
		return usecase.TxRef{}, err
	}
	tx, err := g.fortune.Transact(opts, "claimPrizes", calldata)
	if err != nil {
		return usecase.TxRef{}, fmt.Errorf("claim prizes: %w", err)
	}
	return txRef(tx), nil
}

// WaitForConfirmations blocks until the transaction is buried under
// the requested number of blocks, or fails when it reverted on-chain.
func (g *Gateway) WaitForConfirmations(ctx context.Context, tx usecase.TxRef, confirmations uint64) error {
	hash := common.HexToHash(tx.Hash)
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := g.client.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return fmt.Errorf("execution reverted: transaction %s failed", tx.Hash)
			}
			head, err := g.client.BlockNumber(ctx)
			if err != nil {
				return fmt.Errorf("fetch head block: %w", err)
			}
			mined := receipt.BlockNumber.Uint64()
			if head >= mined && head-mined+1 >= confirmations {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (g *Gateway) RoundsCount(ctx context.Context) (uint64, error) {
	var out []any
	if err := g.fortune.Call(&bind.CallOpts{Context: ctx}, &out, "roundsCount"); err != nil {
		return 0, fmt.Errorf("call roundsCount: %w", err)
	}
	count, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected roundsCount result %T", out[0])
	}
	return count.Uint64(), nil
}

func (g *Gateway) transactOpts(ctx context.Context, value *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(g.key, g.chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	opts.Context = ctx
	opts.Value = value
	return opts, nil
}

func txRef(tx *types.Transaction) usecase.TxRef {
	return usecase.TxRef{Hash: strings.ToLower(tx.Hash().Hex())}
}

func toBigSlice(values []uint64) []*big.Int {
	out := make([]*big.Int, 0, len(values))
	for _, v := range values {
		out = append(out, new(big.Int).SetUint64(v))
	}
	return out
}
