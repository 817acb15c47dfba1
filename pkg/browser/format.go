package browser

import "fmt"

// FormatMemory renders a byte count for display ("512.0 MB")
func FormatMemory(bytes uint64) string {
	if bytes == 0 {
		return "0 B"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(bytes)
	i := 0
	for size >= 1024.0 && i < len(units)-1 {
		size /= 1024.0
		i++
	}

	return fmt.Sprintf("%.1f %s", size, units[i])
}
