package interpolate

// Contains the range of dense point positions [Start, End) resolved by a single consumer call
type WorkUnit struct {
	Start int
	End   int
}
