package pointer

// String returns a pointer to the provided string value
func String(value string) *string {
	return &value
}

// StringIfValid returns a pointer to the value if it's valid, otherwise nil
func StringIfValid(valid bool, value string) *string {
	if valid {
		return &value
	}
	return nil
}
