package ore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/orewatch/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCClient is the subset of Solana RPC the reader needs.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetAccountInfo(
		ctx context.Context,
		account solana.PublicKey,
	) (*rpc.GetAccountInfoResult, error)

	GetSignatureStatuses(
		ctx context.Context,
		searchTransactionHistory bool,
		signatures ...solana.Signature,
	) (*rpc.GetSignatureStatusesResult, error)
}

// Reader fetches and decodes ORE accounts. Every call is a fresh read; nothing
// is cached and nothing is retried. A Reader is safe for concurrent use.
type Reader struct {
	rpc      RPCClient
	deriver  *Deriver
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string // RPC endpoint identifier for metrics (e.g., "mainnet", rpc host)
}

// NewReader creates a new Reader.
// If deriver is nil, the process-wide deriver is used. If metrics is nil, no
// metrics will be recorded.
func NewReader(rpcClient RPCClient, deriver *Deriver, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Reader {
	if deriver == nil {
		deriver = defaultDeriver
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		rpc:      rpcClient,
		deriver:  deriver,
		logger:   logger,
		metrics:  m,
		endpoint: endpoint,
	}
}

// Deriver returns the address deriver used by this reader.
func (r *Reader) Deriver() *Deriver {
	return r.deriver
}

// GetConfig fetches the global config account.
func (r *Reader) GetConfig(ctx context.Context) (*Config, error) {
	data, err := r.accountData(ctx, "config", ConfigAddress)
	if err != nil {
		return nil, err
	}
	cfg, err := DecodeConfig(data)
	r.recordDecode(ctx, "config", ConfigAddress, err)
	return cfg, err
}

// GetTreasury fetches the global treasury account.
func (r *Reader) GetTreasury(ctx context.Context) (*Treasury, error) {
	data, err := r.accountData(ctx, "treasury", TreasuryAddress)
	if err != nil {
		return nil, err
	}
	treasury, err := DecodeTreasury(data)
	r.recordDecode(ctx, "treasury", TreasuryAddress, err)
	return treasury, err
}

// GetTreasuryTokens fetches the treasury's ORE token account.
func (r *Reader) GetTreasuryTokens(ctx context.Context) (*token.Account, error) {
	address := r.deriver.TreasuryTokenAddress()
	data, err := r.accountData(ctx, "treasury_tokens", address)
	if err != nil {
		return nil, err
	}
	acct, err := DecodeTokenAccount(data)
	r.recordDecode(ctx, "treasury_tokens", address, err)
	return acct, err
}

// GetProof fetches the proof account at address.
func (r *Reader) GetProof(ctx context.Context, address solana.PublicKey) (*Proof, error) {
	data, err := r.accountData(ctx, "proof", address)
	if err != nil {
		return nil, err
	}
	proof, err := DecodeProof(data)
	r.recordDecode(ctx, "proof", address, err)
	return proof, err
}

// GetProofWithAuthority derives the proof address of authority and fetches it.
func (r *Reader) GetProofWithAuthority(ctx context.Context, authority solana.PublicKey) (*Proof, error) {
	return r.GetProof(ctx, r.deriver.ProofAddress(authority))
}

// GetClock fetches the clock sysvar.
func (r *Reader) GetClock(ctx context.Context) (*Clock, error) {
	data, err := r.accountData(ctx, "clock", ClockAddress)
	if err != nil {
		return nil, err
	}
	clock, err := DecodeClock(data)
	r.recordDecode(ctx, "clock", ClockAddress, err)
	return clock, err
}

// accountData reads the raw bytes at address. Missing accounts and empty data
// both surface as ErrAccountNotFound. Transport errors are returned unchanged.
func (r *Reader) accountData(ctx context.Context, kind string, address solana.PublicKey) ([]byte, error) {
	r.logger.DebugContext(ctx, "calling GetAccountInfo",
		"kind", kind,
		"address", address.String(),
	)

	start := time.Now()
	out, err := r.rpc.GetAccountInfo(ctx, address)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil && !errors.Is(err, rpc.ErrNotFound) {
		status = "error"
	}
	if r.metrics != nil {
		r.metrics.RecordRPCCall("GetAccountInfo", status, r.endpoint, duration)
	}

	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, r.notFound(ctx, kind, address)
		}
		r.logger.ErrorContext(ctx, "failed to get account info",
			"kind", kind,
			"address", address.String(),
			"error", err,
		)
		if r.metrics != nil {
			r.metrics.RecordAccountDecode(kind, "rpc_error")
		}
		return nil, err
	}

	if out == nil || out.Value == nil || out.Value.Data == nil {
		return nil, r.notFound(ctx, kind, address)
	}
	data := out.Value.Data.GetBinary()
	if len(data) == 0 {
		return nil, r.notFound(ctx, kind, address)
	}
	return data, nil
}

func (r *Reader) notFound(ctx context.Context, kind string, address solana.PublicKey) error {
	r.logger.WarnContext(ctx, "account has no data",
		"kind", kind,
		"address", address.String(),
	)
	if r.metrics != nil {
		r.metrics.RecordAccountDecode(kind, "not_found")
	}
	return fmt.Errorf("%w: %s %s", ErrAccountNotFound, kind, address)
}

func (r *Reader) recordDecode(ctx context.Context, kind string, address solana.PublicKey, err error) {
	status := "success"
	if err != nil {
		status = "decode_error"
		r.logger.ErrorContext(ctx, "failed to decode account",
			"kind", kind,
			"address", address.String(),
			"error", err,
		)
	}
	if r.metrics != nil {
		r.metrics.RecordAccountDecode(kind, status)
	}
}
