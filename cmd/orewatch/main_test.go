package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/brojonat/orewatch/service/ore"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRPCClient serves canned accounts and statuses.
type fakeRPCClient struct {
	accounts map[solana.PublicKey][]byte
	statuses map[solana.Signature]*rpc.SignatureStatusesResult
}

func (f *fakeRPCClient) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	data, ok := f.accounts[account]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{
		Value: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(data)},
	}, nil
}

func (f *fakeRPCClient) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	out := &rpc.GetSignatureStatusesResult{}
	for _, sig := range signatures {
		out.Value = append(out.Value, f.statuses[sig])
	}
	return out, nil
}

// runApp runs the CLI against fake and returns what it printed.
func runApp(t *testing.T, fake *fakeRPCClient, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ORE_RPC_URL", "")

	original := newRPCClient
	newRPCClient = func(string) ore.RPCClient { return fake }
	t.Cleanup(func() { newRPCClient = original })

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"orewatch"}, args...))
	return out.String(), err
}

func configAccount(baseRewardRate uint64, lastResetAt int64, minDifficulty, topBalance uint64) []byte {
	data := make([]byte, 8, 40)
	data[0] = ore.ConfigDiscriminator
	data = binary.LittleEndian.AppendUint64(data, baseRewardRate)
	data = binary.LittleEndian.AppendUint64(data, uint64(lastResetAt))
	data = binary.LittleEndian.AppendUint64(data, minDifficulty)
	data = binary.LittleEndian.AppendUint64(data, topBalance)
	return data
}

func testSignature(b byte) solana.Signature {
	var sig solana.Signature
	sig[0] = b
	sig[63] = b
	return sig
}

func TestApplyJQ(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		filter    string
		want      []string
		expectErr bool
	}{
		{
			name:   "field",
			doc:    `{"balance": 150000000000, "miner": "abc"}`,
			filter: `.miner`,
			want:   []string{`"abc"`},
		},
		{
			name:   "large integers keep precision",
			doc:    `{"base_units": 18446744073709551615}`,
			filter: `.base_units`,
			want:   []string{`18446744073709551615`},
		},
		{
			name:   "multiple results",
			doc:    `{"landed": ["a", "b"]}`,
			filter: `.landed[]`,
			want:   []string{`"a"`, `"b"`},
		},
		{
			name:   "boolean expression",
			doc:    `{"balance": 25}`,
			filter: `.balance > 50`,
			want:   []string{`false`},
		},
		{
			name:      "parse error",
			doc:       `{}`,
			filter:    `.[`,
			expectErr: true,
		},
		{
			name:      "runtime error",
			doc:       `{"balance": 1}`,
			filter:    `.balance[0]`,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := applyJQ(tt.filter, []byte(tt.doc))
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			var got []string
			var buf bytes.Buffer
			for _, r := range results {
				buf.Reset()
				require.NoError(t, writeJSONLine(&buf, r))
				got = append(got, strings.TrimSpace(buf.String()))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmountCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"to-ui", []string{"amount", "to-ui", "100000000000"}, "1\n"},
		{"to-ui fraction", []string{"amount", "to-ui", "150000000000"}, "1.5\n"},
		{"to-base", []string{"amount", "to-base", "2.5"}, "250000000000\n"},
		{"to-base v1", []string{"amount", "to-base", "--v1", "1.5"}, "1500000000\n"},
		{"json", []string{"--json", "amount", "to-ui", "150000000000"}, `{"base_units":150000000000,"amount":"1.5","decimals":11}` + "\n"},
		{"jq", []string{"--jq", ".decimals", "amount", "to-base", "--v1", "1"}, "9\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runApp(t, nil, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestAmountCommands_InvalidInput(t *testing.T) {
	_, err := runApp(t, nil, "amount", "to-ui", "1.5")
	assert.ErrorContains(t, err, "invalid base units")

	_, err = runApp(t, nil, "amount", "to-base", "lots")
	assert.ErrorContains(t, err, "invalid amount")
}

func TestDeriveCommands(t *testing.T) {
	authority := solana.NewWallet().PublicKey()

	out, err := runApp(t, nil, "derive", "proof", authority.String())
	require.NoError(t, err)
	assert.Equal(t, ore.ProofAddress(authority).String()+"\n", out)

	out, err = runApp(t, nil, "--jq", ".treasury_tokens", "derive", "treasury-tokens")
	require.NoError(t, err)
	assert.Equal(t, `"`+ore.TreasuryTokenAddress().String()+`"`+"\n", out)

	_, err = runApp(t, nil, "derive", "proof", "not-a-key")
	assert.ErrorContains(t, err, "invalid authority")
}

func TestConfigCommand(t *testing.T) {
	fake := &fakeRPCClient{accounts: map[solana.PublicKey][]byte{
		ore.ConfigAddress: configAccount(4_000_000_000, 1_700_000_000, 8, 250_000_000_000),
	}}

	out, err := runApp(t, fake, "--rpc-url", "http://localhost:8899", "--jq", ".top_balance", "config")
	require.NoError(t, err)
	assert.Equal(t, "250000000000\n", out)

	out, err = runApp(t, fake, "--rpc-url", "http://localhost:8899", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "Top Balance:      2.5 ORE")
	assert.Contains(t, out, "2023-11-14T22:13:20Z")
}

func TestConfigCommand_Errors(t *testing.T) {
	_, err := runApp(t, &fakeRPCClient{}, "config")
	assert.ErrorContains(t, err, "--rpc-url or ORE_RPC_URL is required")

	_, err = runApp(t, &fakeRPCClient{}, "--rpc-url", "http://localhost:8899", "config")
	assert.ErrorIs(t, err, ore.ErrAccountNotFound)
}

func TestProofCommand_RequiresOneSource(t *testing.T) {
	_, err := runApp(t, &fakeRPCClient{}, "--rpc-url", "http://localhost:8899", "proof")
	assert.ErrorContains(t, err, "exactly one of AUTHORITY or --address")

	key := solana.NewWallet().PublicKey().String()
	_, err = runApp(t, &fakeRPCClient{}, "--rpc-url", "http://localhost:8899", "proof", "--address", key, key)
	assert.ErrorContains(t, err, "exactly one of AUTHORITY or --address")
}

func TestLandedCommand(t *testing.T) {
	s1, s2, s3 := testSignature(1), testSignature(2), testSignature(3)
	fake := &fakeRPCClient{statuses: map[solana.Signature]*rpc.SignatureStatusesResult{
		s1: {ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
		s2: {ConfirmationStatus: rpc.ConfirmationStatusProcessed},
	}}

	out, err := runApp(t, fake, "--rpc-url", "http://localhost:8899", "--json", "landed", s1.String(), s2.String(), s3.String())
	require.NoError(t, err)
	assert.Equal(t,
		`{"landed":["`+s1.String()+`"],"pending":["`+s2.String()+`","`+s3.String()+`"]}`+"\n",
		out)

	out, err = runApp(t, fake, "--rpc-url", "http://localhost:8899", "landed", s1.String())
	require.NoError(t, err)
	assert.Equal(t, "landed   "+s1.String()+"\n", out)
}

func TestLandedCommand_InvalidSignature(t *testing.T) {
	_, err := runApp(t, &fakeRPCClient{}, "--rpc-url", "http://localhost:8899", "landed", "nope")
	assert.ErrorContains(t, err, "invalid signature")

	_, err = runApp(t, &fakeRPCClient{}, "--rpc-url", "http://localhost:8899", "landed")
	assert.ErrorContains(t, err, "at least one signature is required")
}
