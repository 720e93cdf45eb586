package executor

// Partition splits paths into at most n contiguous chunks whose sizes differ
// by at most one. Order is kept.
func Partition(paths []string, n int) [][]string {
	if len(paths) == 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if n > len(paths) {
		n = len(paths)
	}
	chunks := make([][]string, 0, n)
	size, extra := len(paths)/n, len(paths)%n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < extra {
			end++
		}
		chunks = append(chunks, paths[start:end:end])
		start = end
	}
	return chunks
}
