package scheduler

import (
	"log/slog"

	"github.com/h1v3-io/tkt/pkg/protocol"
)

// DigestJobName is the job name used for the stats digest.
const DigestJobName = "digest"

// StatsSource supplies the numbers for a digest.
type StatsSource interface {
	Stats() protocol.Stats
}

// Digest returns a job that logs a one-line summary of the ticket collection.
func Digest(src StatsSource, logger *slog.Logger) func() {
	if logger == nil {
		logger = slog.Default()
	}
	return func() {
		st := src.Stats()
		logger.Info("ticket digest",
			"total", st.Total,
			"open", st.ByStatus[protocol.StatusOpen],
			"prog", st.ByStatus[protocol.StatusProgress],
			"done", st.ByStatus[protocol.StatusDone],
			"high_priority", st.HighPriority,
		)
	}
}
