package cache

import "sort"

// StudentStats are the derived per-student summary figures, computed on read
// from the cached per-assignment-per-student records.
type StudentStats struct {
	AverageGrade float64 `json:"averageGrade"`
	MedianGrade  float64 `json:"medianGrade"`
}

// CalculateStudentStats scans the student's assignment records and summarises
// the highest completion percentage achieved per assignment. Both figures are
// 0 when the student has no records. The median is taken from the sorted
// grade list; for an even count the upper middle element is used.
func (c *Cache) CalculateStudentStats(uniid string) StudentStats {
	c.mu.RLock()
	grades := make([]float64, 0)
	for _, record := range c.slugStudents {
		if record.Uniid == uniid {
			grades = append(grades, record.HighestPercent)
		}
	}
	c.mu.RUnlock()

	if len(grades) == 0 {
		return StudentStats{}
	}

	sum := 0.0
	for _, grade := range grades {
		sum += grade
	}
	sort.Float64s(grades)

	return StudentStats{
		AverageGrade: sum / float64(len(grades)),
		MedianGrade:  grades[len(grades)/2],
	}
}
