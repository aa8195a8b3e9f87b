package wallet

// FormatAddress renders addr as its first 6 and last 4 characters joined by
// "...". Inputs shorter than that overlap; only "" maps to "".
func FormatAddress(addr string) string {
	if addr == "" {
		return ""
	}
	head := addr[:min(6, len(addr))]
	tail := addr[max(0, len(addr)-4):]
	return head + "..." + tail
}
