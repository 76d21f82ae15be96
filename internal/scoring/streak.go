package scoring

// BaseStreakMilestone is the first streak length worth celebrating.
const BaseStreakMilestone = 5

var streakMilestones = []int{5, 10, 15, 20}

// NextStreakMilestone returns the next milestone above the current streak length.
func NextStreakMilestone(current int) int {
	for _, m := range streakMilestones {
		if m > current {
			return m
		}
	}
	// Beyond 20, every 5.
	return ((current / 5) + 1) * 5
}

// IsStreakMilestone reports whether reaching streak crosses a milestone.
func IsStreakMilestone(streak int) bool {
	return streak > 0 && NextStreakMilestone(streak-1) == streak
}
