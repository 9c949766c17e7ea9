package strategy

// crossedBelow reports a series moving from at-or-above a level to below it
func crossedBelow(prev, cur, prevLevel, curLevel float64) bool {
	return prev >= prevLevel && cur < curLevel
}

// crossedAbove reports a series moving from at-or-below a level to above it
func crossedAbove(prev, cur, prevLevel, curLevel float64) bool {
	return prev <= prevLevel && cur > curLevel
}
