package ore

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/brojonat/orewatch/service/metrics"
	"github.com/gagliardetto/solana-go"
)

// Deriver computes program-derived addresses and memoizes them for the
// lifetime of the process. The cache is unbounded: the set of authorities a
// single process touches is small. Safe for concurrent use; two goroutines
// missing on the same authority may both derive, and the first stored value
// wins. Derivation is deterministic, so both values are identical.
type Deriver struct {
	proofs sync.Map // solana.PublicKey -> solana.PublicKey

	treasuryOnce   sync.Once
	treasuryTokens solana.PublicKey

	derivations atomic.Uint64
	metrics     *metrics.Metrics
}

// NewDeriver creates a Deriver with an empty cache.
// If metrics is nil, no metrics will be recorded.
func NewDeriver(m *metrics.Metrics) *Deriver {
	return &Deriver{metrics: m}
}

var defaultDeriver = NewDeriver(nil)

// ProofAddress returns the proof account address of authority using the
// process-wide deriver.
func ProofAddress(authority solana.PublicKey) solana.PublicKey {
	return defaultDeriver.ProofAddress(authority)
}

// TreasuryTokenAddress returns the treasury's associated token account using
// the process-wide deriver.
func TreasuryTokenAddress() solana.PublicKey {
	return defaultDeriver.TreasuryTokenAddress()
}

// ProofAddress returns the proof PDA for authority, seeded with ProofSeed and
// the authority key under ProgramID.
func (d *Deriver) ProofAddress(authority solana.PublicKey) solana.PublicKey {
	if cached, ok := d.proofs.Load(authority); ok {
		d.record("proof", true)
		return cached.(solana.PublicKey)
	}

	addr, _, err := solana.FindProgramAddress([][]byte{ProofSeed, authority.Bytes()}, ProgramID)
	if err != nil {
		// Only reachable if no bump seed yields an off-curve point.
		panic(fmt.Sprintf("failed to derive proof address for %s: %v", authority, err))
	}
	d.derivations.Add(1)
	d.record("proof", false)

	actual, _ := d.proofs.LoadOrStore(authority, addr)
	return actual.(solana.PublicKey)
}

// TreasuryTokenAddress returns the associated token account of TreasuryAddress
// for MintAddress. It is derived once.
func (d *Deriver) TreasuryTokenAddress() solana.PublicKey {
	hit := true
	d.treasuryOnce.Do(func() {
		addr, _, err := solana.FindAssociatedTokenAddress(TreasuryAddress, MintAddress)
		if err != nil {
			panic(fmt.Sprintf("failed to derive treasury token address: %v", err))
		}
		d.treasuryTokens = addr
		d.derivations.Add(1)
		hit = false
	})
	d.record("treasury_tokens", hit)
	return d.treasuryTokens
}

// Derivations reports how many addresses have actually been computed, as
// opposed to served from cache.
func (d *Deriver) Derivations() uint64 {
	return d.derivations.Load()
}

func (d *Deriver) record(kind string, hit bool) {
	if d.metrics != nil {
		d.metrics.RecordDerivation(kind, hit)
	}
}
