package script

// Statement is one parsed script line.
type Statement struct {
	// Line is the 1-based source line, kept for diagnostics.
	Line int

	// Result is the result handle name without the leading %. Empty for
	// one-way operations.
	Result string

	// Op is the operation name (match, get_parent_for, outline, peel,
	// pipeline, unroll).
	Op string

	// Input is the input handle name without the leading %. Empty for match.
	Input string

	// MatchKind and Target apply to match only: the operation kind to
	// collect and the callable to search under.
	MatchKind string
	Target    string

	// AttrSrc is the raw { } attribute block, empty when omitted. Validation
	// interprets it.
	AttrSrc string
}
