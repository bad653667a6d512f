package ore

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// maxStatusBatch is the most signatures getSignatureStatuses accepts per call.
const maxStatusBatch = 256

// commitmentTier orders confirmation statuses: processed < confirmed < finalized.
// Unknown or empty statuses rank zero.
func commitmentTier(status rpc.ConfirmationStatusType) int {
	switch status {
	case rpc.ConfirmationStatusProcessed:
		return 1
	case rpc.ConfirmationStatusConfirmed:
		return 2
	case rpc.ConfirmationStatusFinalized:
		return 3
	default:
		return 0
	}
}

// SatisfiesConfirmed reports whether status has reached at least the
// confirmed commitment level. A nil status never does. Nodes that omit
// confirmationStatus are judged by their confirmation count instead: a nil
// count means the slot is rooted, and more than one confirmation counts as
// confirmed.
func SatisfiesConfirmed(status *rpc.SignatureStatusesResult) bool {
	if status == nil {
		return false
	}
	if status.ConfirmationStatus != "" {
		return commitmentTier(status.ConfirmationStatus) >= commitmentTier(rpc.ConfirmationStatusConfirmed)
	}
	return status.Confirmations == nil || *status.Confirmations > 1
}

// FindLandedTxs returns the signatures whose status, matched by position,
// satisfies the confirmed commitment level. Signatures without a
// corresponding status are not landed. The result keeps input order, but
// callers should treat it as a set.
func FindLandedTxs(signatures []solana.Signature, statuses []*rpc.SignatureStatusesResult) []solana.Signature {
	landed := make([]solana.Signature, 0, len(signatures))
	for i, sig := range signatures {
		if i >= len(statuses) {
			break
		}
		if SatisfiesConfirmed(statuses[i]) {
			landed = append(landed, sig)
		}
	}
	return landed
}

// FindLanded fetches the statuses of signatures and returns those that have
// landed. Transport errors are returned unchanged.
func (r *Reader) FindLanded(ctx context.Context, signatures []solana.Signature) ([]solana.Signature, error) {
	if len(signatures) == 0 {
		return []solana.Signature{}, nil
	}

	statuses := make([]*rpc.SignatureStatusesResult, 0, len(signatures))
	for start := 0; start < len(signatures); start += maxStatusBatch {
		end := min(start+maxStatusBatch, len(signatures))

		callStart := time.Now()
		out, err := r.rpc.GetSignatureStatuses(ctx, false, signatures[start:end]...)
		duration := time.Since(callStart).Seconds()

		// solana-go reports a response without a value as ErrNotFound; that
		// only means no signature in the batch is known yet.
		if errors.Is(err, rpc.ErrNotFound) {
			out, err = nil, nil
		}

		status := "success"
		if err != nil {
			status = "error"
		}
		if r.metrics != nil {
			r.metrics.RecordRPCCall("GetSignatureStatuses", status, r.endpoint, duration)
		}
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to get signature statuses",
				"count", end-start,
				"error", err,
			)
			return nil, err
		}

		if out != nil {
			// Extra entries would shift every later batch out of alignment.
			value := out.Value
			if len(value) > end-start {
				value = value[:end-start]
			}
			statuses = append(statuses, value...)
		}
		// Pad short responses so later batches stay aligned.
		for len(statuses) < end {
			statuses = append(statuses, nil)
		}
	}

	landed := FindLandedTxs(signatures, statuses)

	if r.metrics != nil {
		r.metrics.RecordLandingClassified(len(landed), len(signatures)-len(landed))
	}
	r.logger.DebugContext(ctx, "classified signatures",
		"total", len(signatures),
		"landed", len(landed),
	)

	return landed, nil
}

// AwaitLanded polls FindLanded every interval until every signature has
// landed or attempts polls have been made. It returns all signatures that
// landed, in input order. Not landing in time is not an error; transport
// errors and context cancellation are, and are returned together with
// whatever landed before them.
func (r *Reader) AwaitLanded(ctx context.Context, signatures []solana.Signature, interval time.Duration, attempts int) ([]solana.Signature, error) {
	landedSet := make(map[solana.Signature]struct{}, len(signatures))
	pending := signatures

	for attempt := range attempts {
		landed, err := r.FindLanded(ctx, pending)
		if err != nil {
			return inOrder(signatures, landedSet), err
		}
		for _, sig := range landed {
			landedSet[sig] = struct{}{}
		}
		pending = Pending(signatures, landedSet)

		if len(pending) == 0 {
			break
		}
		if attempt == attempts-1 {
			r.logger.WarnContext(ctx, "signatures did not land",
				"pending", len(pending),
				"attempts", attempts,
			)
			break
		}
		if err := Sleep(ctx, interval); err != nil {
			return inOrder(signatures, landedSet), err
		}
	}

	return inOrder(signatures, landedSet), nil
}

// Pending returns the signatures not present in landed, in input order.
func Pending(signatures []solana.Signature, landed map[solana.Signature]struct{}) []solana.Signature {
	pending := make([]solana.Signature, 0, len(signatures))
	for _, sig := range signatures {
		if _, ok := landed[sig]; !ok {
			pending = append(pending, sig)
		}
	}
	return pending
}

func inOrder(signatures []solana.Signature, set map[solana.Signature]struct{}) []solana.Signature {
	out := make([]solana.Signature, 0, len(set))
	for _, sig := range signatures {
		if _, ok := set[sig]; ok {
			out = append(out, sig)
		}
	}
	return out
}
