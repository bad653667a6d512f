package ore

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Well-known ORE program addresses.
var (
	// ProgramID is the ORE v2 mining program.
	ProgramID = solana.MustPublicKeyFromBase58("oreV2ZymfyeXgNgBdqMkumTqqAprVqgBWQfoYkrtKWQ")

	// MintAddress is the ORE token mint.
	MintAddress = solana.MustPublicKeyFromBase58("oreoU2P8bN6jkk3jbaiVxYnG1dCXcYxwhwyK9jSybcp")

	// ConfigAddress holds the global program configuration.
	ConfigAddress = mustProgramAddress(ConfigSeed)

	// TreasuryAddress holds the global treasury and owns the treasury token account.
	TreasuryAddress = mustProgramAddress(TreasurySeed)

	// ClockAddress is the clock sysvar.
	ClockAddress = solana.SysVarClockPubkey
)

// PDA seeds.
var (
	ConfigSeed   = []byte("config")
	ProofSeed    = []byte("proof")
	TreasurySeed = []byte("treasury")
)

const (
	// TokenDecimals is the precision of the current ORE token.
	TokenDecimals = 11

	// TokenDecimalsV1 is the precision of the v1 token, still used when
	// converting amounts for the legacy program.
	TokenDecimalsV1 = 9
)

// Account discriminators: the first byte of every ORE program account.
const (
	ConfigDiscriminator   = uint8(101)
	ProofDiscriminator    = uint8(102)
	TreasuryDiscriminator = uint8(103)
)

func mustProgramAddress(seeds ...[]byte) solana.PublicKey {
	addr, _, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		panic(fmt.Sprintf("failed to derive program address: %v", err))
	}
	return addr
}
