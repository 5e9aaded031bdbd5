package artcatalog

import (
	"context"
	"log/slog"
)

// BackfillReport summarizes one fingerprint backfill pass.
type BackfillReport struct {
	Candidates int
	Filled     int
	Skipped    int // source missing or undecodable; left for a later pass
}

// BackfillFingerprints computes fingerprints for legacy entries that were
// cataloged without one. Idempotent: it only sees rows whose fingerprint is
// unset, and the store refuses to overwrite a value that appeared in the
// meantime. A file that has gone missing or no longer decodes is logged and
// skipped, never fatal, so the pass can be re-run as files are restored.
func BackfillFingerprints(ctx context.Context, store BackfillStore, logger *slog.Logger) (BackfillReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var report BackfillReport

	refs, err := store.MissingFingerprints(ctx)
	if err != nil {
		return report, &StoreError{Op: "missing fingerprints", Err: err}
	}
	report.Candidates = len(refs)

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		fp, err := FingerprintFile(ref.StoragePath)
		if err != nil {
			logger.Warn("backfill: fingerprint failed",
				"id", ref.ID, "path", ref.StoragePath, "error", err)
			report.Skipped++
			continue
		}
		if err := store.SetFingerprint(ctx, ref.ID, fp); err != nil {
			return report, &StoreError{Op: "set fingerprint", Err: err}
		}
		report.Filled++
	}
	return report, nil
}
