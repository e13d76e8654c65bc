package marker

// CompareVersions exposes compareVersions for testing.
func CompareVersions(a, b string) (int, error) {
	return compareVersions(a, b, "python_full_version")
}
