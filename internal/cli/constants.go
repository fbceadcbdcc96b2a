package cli

const (
	// TabWidth is the padding between columns in text output.
	TabWidth = 2
)
