// internal/lease/document/format.go
package document

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// wholeDollars rounds to the nearest unit and groups thousands with commas.
func wholeDollars(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func signedMoney(v float64) string {
	if v < 0 {
		return "-$" + wholeDollars(-v)
	}
	return "+$" + wholeDollars(v)
}

func trimNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
