package ore

import (
	"context"
	"net/url"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// realRPCClient adapts the actual solana-go RPC client to our RPCClient interface.
type realRPCClient struct {
	client *rpc.Client
}

// NewRPCClient creates a new RPCClient that wraps the solana-go RPC client.
// For premium RPC endpoints that require API keys, include the key in the URL:
// - Helius: https://mainnet.helius-rpc.com/?api-key=YOUR-KEY
// - QuickNode: https://YOUR-ENDPOINT.quiknode.pro/YOUR-KEY/
func NewRPCClient(rpcURL string) RPCClient {
	return &realRPCClient{
		client: rpc.New(rpcURL),
	}
}

func (r *realRPCClient) GetAccountInfo(
	ctx context.Context,
	account solana.PublicKey,
) (*rpc.GetAccountInfoResult, error) {
	return r.client.GetAccountInfo(ctx, account)
}

func (r *realRPCClient) GetSignatureStatuses(
	ctx context.Context,
	searchTransactionHistory bool,
	signatures ...solana.Signature,
) (*rpc.GetSignatureStatusesResult, error) {
	return r.client.GetSignatureStatuses(ctx, searchTransactionHistory, signatures...)
}

// EndpointLabel extracts a short identifier from an RPC URL for metrics labeling.
// Examples:
//   - "https://api.mainnet-beta.solana.com" -> "mainnet"
//   - "https://mainnet.helius-rpc.com/?api-key=..." -> "helius"
//   - "https://some-endpoint.quiknode.pro/..." -> "quiknode"
func EndpointLabel(rpcURL string) string {
	parsed, err := url.Parse(rpcURL)
	if err != nil || parsed.Hostname() == "" {
		return "unknown"
	}

	host := parsed.Hostname()
	for _, provider := range []string{"helius", "quiknode", "alchemy", "triton", "rpcpool"} {
		if strings.Contains(host, provider) {
			return provider
		}
	}
	if strings.Contains(host, "quicknode") {
		return "quiknode"
	}
	for _, cluster := range []string{"mainnet", "devnet", "testnet"} {
		if strings.Contains(host, cluster) {
			return cluster
		}
	}

	return host
}
