package pipeline

// SkipThreshold is the size at or below which optimization is bypassed.
const SkipThreshold int64 = 50 * 1024

// Skip reports whether an image of size bytes bypasses every stage.
func Skip(size int64) bool {
	return size <= SkipThreshold
}
