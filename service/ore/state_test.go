package ore

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discriminator(kind uint8) []byte {
	d := make([]byte, discriminatorSize)
	d[0] = kind
	return d
}

func configBytes(cfg Config) []byte {
	b := discriminator(ConfigDiscriminator)
	b = binary.LittleEndian.AppendUint64(b, cfg.BaseRewardRate)
	b = binary.LittleEndian.AppendUint64(b, uint64(cfg.LastResetAt))
	b = binary.LittleEndian.AppendUint64(b, cfg.MinDifficulty)
	b = binary.LittleEndian.AppendUint64(b, cfg.TopBalance)
	return b
}

func proofBytes(p Proof) []byte {
	b := discriminator(ProofDiscriminator)
	b = append(b, p.Authority.Bytes()...)
	b = binary.LittleEndian.AppendUint64(b, p.Balance)
	b = append(b, p.Challenge[:]...)
	b = append(b, p.LastHash[:]...)
	b = binary.LittleEndian.AppendUint64(b, uint64(p.LastHashAt))
	b = binary.LittleEndian.AppendUint64(b, uint64(p.LastStakeAt))
	b = append(b, p.Miner.Bytes()...)
	b = binary.LittleEndian.AppendUint64(b, p.TotalHashes)
	b = binary.LittleEndian.AppendUint64(b, p.TotalRewards)
	return b
}

func clockBytes(c Clock) []byte {
	var b []byte
	b = binary.LittleEndian.AppendUint64(b, c.Slot)
	b = binary.LittleEndian.AppendUint64(b, uint64(c.EpochStartTimestamp))
	b = binary.LittleEndian.AppendUint64(b, c.Epoch)
	b = binary.LittleEndian.AppendUint64(b, c.LeaderScheduleEpoch)
	b = binary.LittleEndian.AppendUint64(b, uint64(c.UnixTimestamp))
	return b
}

func tokenAccountBytes(mint, owner solana.PublicKey, amount uint64) []byte {
	var b []byte
	b = append(b, mint.Bytes()...)
	b = append(b, owner.Bytes()...)
	b = binary.LittleEndian.AppendUint64(b, amount)
	b = append(b, make([]byte, 4+32)...) // delegate: none
	b = append(b, 1)                     // state: initialized
	b = append(b, make([]byte, 4+8)...)  // is_native: none
	b = binary.LittleEndian.AppendUint64(b, 0)
	b = append(b, make([]byte, 4+32)...) // close_authority: none
	return b
}

func sampleProof() Proof {
	return Proof{
		Authority:    solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"),
		Balance:      42_000_000_000,
		Challenge:    solana.Hash{1, 2, 3},
		LastHash:     solana.Hash{9, 8, 7},
		LastHashAt:   1_720_000_000,
		LastStakeAt:  1_719_999_000,
		Miner:        solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"),
		TotalHashes:  1234,
		TotalRewards: 99_000_000_000,
	}
}

func TestDecodeConfig(t *testing.T) {
	want := Config{
		BaseRewardRate: 5_000,
		LastResetAt:    1_720_000_000,
		MinDifficulty:  8,
		TopBalance:     1_000_000_000_000,
	}

	got, err := DecodeConfig(configBytes(want))
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestDecodeProof(t *testing.T) {
	want := sampleProof()
	data := proofBytes(want)
	require.Len(t, data, discriminatorSize+proofSize)

	got, err := DecodeProof(data)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestDecodeTreasury(t *testing.T) {
	got, err := DecodeTreasury(discriminator(TreasuryDiscriminator))
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestDecodeClock(t *testing.T) {
	want := Clock{
		Slot:                280_000_000,
		EpochStartTimestamp: 1_719_000_000,
		Epoch:               650,
		LeaderScheduleEpoch: 651,
		UnixTimestamp:       1_720_000_000,
	}

	got, err := DecodeClock(clockBytes(want))
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestDecodeTokenAccount(t *testing.T) {
	owner := TreasuryAddress
	data := tokenAccountBytes(MintAddress, owner, 7_500_000_000_000)

	got, err := DecodeTokenAccount(data)
	require.NoError(t, err)
	assert.Equal(t, MintAddress, got.Mint)
	assert.Equal(t, owner, got.Owner)
	assert.Equal(t, uint64(7_500_000_000_000), got.Amount)
}

func TestDecode_Errors(t *testing.T) {
	proof := proofBytes(sampleProof())

	tests := []struct {
		name   string
		decode func() error
	}{
		{
			name: "empty config",
			decode: func() error {
				_, err := DecodeConfig(nil)
				return err
			},
		},
		{
			name: "config with wrong discriminator",
			decode: func() error {
				data := configBytes(Config{})
				data[0] = ProofDiscriminator
				_, err := DecodeConfig(data)
				return err
			},
		},
		{
			name: "truncated proof",
			decode: func() error {
				_, err := DecodeProof(proof[:len(proof)-1])
				return err
			},
		},
		{
			name: "proof with trailing bytes",
			decode: func() error {
				_, err := DecodeProof(append(append([]byte{}, proof...), 0))
				return err
			},
		},
		{
			name: "config bytes decoded as proof",
			decode: func() error {
				_, err := DecodeProof(configBytes(Config{}))
				return err
			},
		},
		{
			name: "treasury with payload",
			decode: func() error {
				_, err := DecodeTreasury(append(discriminator(TreasuryDiscriminator), 1))
				return err
			},
		},
		{
			name: "short clock",
			decode: func() error {
				_, err := DecodeClock(make([]byte, clockSize-8))
				return err
			},
		},
		{
			name: "clock with trailing bytes",
			decode: func() error {
				_, err := DecodeClock(make([]byte, clockSize+8))
				return err
			},
		},
		{
			name: "short token account",
			decode: func() error {
				_, err := DecodeTokenAccount(make([]byte, 100))
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}
