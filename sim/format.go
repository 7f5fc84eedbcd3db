package sim

import "fmt"

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// FormatSize renders a byte count for diagnostics using binary units with two decimals.
// Thresholds are strict, not <=: a value equal to a unit size is shown in that
// unit, so 1024 is "1.00 KB" rather than "1024 bytes".
func FormatSize(size uint64) string {
	switch {
	case size < kib:
		return fmt.Sprintf("%d bytes", size)
	case size < mib:
		return fmt.Sprintf("%.2f KB", float64(size)/kib)
	case size < gib:
		return fmt.Sprintf("%.2f MB", float64(size)/mib)
	default:
		return fmt.Sprintf("%.2f GB", float64(size)/gib)
	}
}
