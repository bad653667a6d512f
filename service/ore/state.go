package ore

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

var (
	// ErrAccountNotFound is returned when an address holds no account data.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDecode is returned when account data does not match the expected layout.
	ErrDecode = errors.New("failed to decode account")
)

// Program accounts start with an 8-byte discriminator: the account kind
// followed by seven zero bytes.
const discriminatorSize = 8

// Record sizes, excluding the discriminator.
const (
	configSize       = 32
	proofSize        = 168
	treasurySize     = 0
	clockSize        = 40
	tokenAccountSize = 165
)

// Config is the global program configuration.
type Config struct {
	BaseRewardRate uint64 `json:"base_reward_rate"`
	LastResetAt    int64  `json:"last_reset_at"`
	MinDifficulty  uint64 `json:"min_difficulty"`
	TopBalance     uint64 `json:"top_balance"`
}

// Treasury is the global treasury account. It carries no fields of its own;
// its token balance lives in the treasury token account.
type Treasury struct{}

// Proof tracks a miner's stake and hashing state. One exists per authority.
type Proof struct {
	Authority    solana.PublicKey `json:"authority"`
	Balance      uint64           `json:"balance"`
	Challenge    solana.Hash      `json:"challenge"`
	LastHash     solana.Hash      `json:"last_hash"`
	LastHashAt   int64            `json:"last_hash_at"`
	LastStakeAt  int64            `json:"last_stake_at"`
	Miner        solana.PublicKey `json:"miner"`
	TotalHashes  uint64           `json:"total_hashes"`
	TotalRewards uint64           `json:"total_rewards"`
}

// Clock is the clock sysvar.
type Clock struct {
	Slot                uint64 `json:"slot"`
	EpochStartTimestamp int64  `json:"epoch_start_timestamp"`
	Epoch               uint64 `json:"epoch"`
	LeaderScheduleEpoch uint64 `json:"leader_schedule_epoch"`
	UnixTimestamp       int64  `json:"unix_timestamp"`
}

// DecodeConfig decodes a Config account.
func DecodeConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := decodeProgramAccount("config", data, ConfigDiscriminator, configSize, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DecodeTreasury decodes a Treasury account.
func DecodeTreasury(data []byte) (*Treasury, error) {
	if _, err := programAccountBody("treasury", data, TreasuryDiscriminator, treasurySize); err != nil {
		return nil, err
	}
	return &Treasury{}, nil
}

// DecodeProof decodes a Proof account.
func DecodeProof(data []byte) (*Proof, error) {
	var proof Proof
	if err := decodeProgramAccount("proof", data, ProofDiscriminator, proofSize, &proof); err != nil {
		return nil, err
	}
	return &proof, nil
}

// DecodeClock decodes the clock sysvar. Sysvars are plain fixed-width
// little-endian structs with no discriminator. Trailing bytes are rejected
// like every other record, even though a bincode reader would ignore them.
func DecodeClock(data []byte) (*Clock, error) {
	if len(data) != clockSize {
		return nil, fmt.Errorf("%w: clock: expected %d bytes, got %d", ErrDecode, clockSize, len(data))
	}
	var clock Clock
	if err := bin.NewBinDecoder(data).Decode(&clock); err != nil {
		return nil, fmt.Errorf("%w: clock: %v", ErrDecode, err)
	}
	return &clock, nil
}

// DecodeTokenAccount decodes an SPL token account.
func DecodeTokenAccount(data []byte) (*token.Account, error) {
	if len(data) != tokenAccountSize {
		return nil, fmt.Errorf("%w: token account: expected %d bytes, got %d", ErrDecode, tokenAccountSize, len(data))
	}
	var acct token.Account
	if err := bin.NewBinDecoder(data).Decode(&acct); err != nil {
		return nil, fmt.Errorf("%w: token account: %v", ErrDecode, err)
	}
	return &acct, nil
}

func decodeProgramAccount(kind string, data []byte, discriminator uint8, size int, v bin.BinaryUnmarshaler) error {
	body, err := programAccountBody(kind, data, discriminator, size)
	if err != nil {
		return err
	}
	if err := v.UnmarshalWithDecoder(bin.NewBinDecoder(body)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, kind, err)
	}
	return nil
}

// programAccountBody checks the discriminator and exact length and returns
// the bytes after the discriminator.
func programAccountBody(kind string, data []byte, discriminator uint8, size int) ([]byte, error) {
	if len(data) != discriminatorSize+size {
		return nil, fmt.Errorf("%w: %s: expected %d bytes, got %d", ErrDecode, kind, discriminatorSize+size, len(data))
	}
	if data[0] != discriminator {
		return nil, fmt.Errorf("%w: %s: unexpected discriminator %d", ErrDecode, kind, data[0])
	}
	return data[discriminatorSize:], nil
}

func (c *Config) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if c.BaseRewardRate, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if c.LastResetAt, err = dec.ReadInt64(bin.LE); err != nil {
		return err
	}
	if c.MinDifficulty, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	c.TopBalance, err = dec.ReadUint64(bin.LE)
	return err
}

func (p *Proof) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if p.Authority, err = readPublicKey(dec); err != nil {
		return err
	}
	if p.Balance, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if err = readHash(dec, &p.Challenge); err != nil {
		return err
	}
	if err = readHash(dec, &p.LastHash); err != nil {
		return err
	}
	if p.LastHashAt, err = dec.ReadInt64(bin.LE); err != nil {
		return err
	}
	if p.LastStakeAt, err = dec.ReadInt64(bin.LE); err != nil {
		return err
	}
	if p.Miner, err = readPublicKey(dec); err != nil {
		return err
	}
	if p.TotalHashes, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	p.TotalRewards, err = dec.ReadUint64(bin.LE)
	return err
}

func (c *Clock) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if c.Slot, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if c.EpochStartTimestamp, err = dec.ReadInt64(bin.LE); err != nil {
		return err
	}
	if c.Epoch, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if c.LeaderScheduleEpoch, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	c.UnixTimestamp, err = dec.ReadInt64(bin.LE)
	return err
}

func readPublicKey(dec *bin.Decoder) (solana.PublicKey, error) {
	b, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(b), nil
}

func readHash(dec *bin.Decoder, dst *solana.Hash) error {
	b, err := dec.ReadNBytes(len(dst))
	if err != nil {
		return err
	}
	copy(dst[:], b)
	return nil
}
