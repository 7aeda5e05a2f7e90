package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewDatasetID returns csv_<base36 millisecond timestamp>_<5 random base36 chars>.
func NewDatasetID(now time.Time) string {
	u := uuid.New()
	var suffix strings.Builder
	for i := range 5 {
		suffix.WriteByte(idAlphabet[int(u[i])%len(idAlphabet)])
	}
	return "csv_" + strconv.FormatInt(now.UnixMilli(), 36) + "_" + suffix.String()
}
