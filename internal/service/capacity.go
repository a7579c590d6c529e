package service

import "github.com/edunest/tutorhub-api/internal/models"

// NextSectionLabel returns the label for the next section of a program:
// the successor of the greatest existing label in bijective base-26
// (A..Z, AA, AB, ...). An empty input yields "A".
//
// Labels longer than one character carry properly ("AZ" -> "BA"), and
// ordering treats shorter labels as smaller so "AA" sorts after "Z".
func NextSectionLabel(labels []string) string {
	if len(labels) == 0 {
		return "A"
	}
	max := labels[0]
	for _, label := range labels[1:] {
		if labelLess(max, label) {
			max = label
		}
	}
	return incrementLabel(max)
}

func labelLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func incrementLabel(label string) string {
	if label == "" {
		return "A"
	}
	chars := []byte(label)
	for i := len(chars) - 1; i >= 0; i-- {
		if chars[i] < 'Z' {
			chars[i]++
			return string(chars)
		}
		chars[i] = 'A'
	}
	return "A" + string(chars)
}

// NeedsNewSection reports whether a program should get a sibling section:
// either it has no sections at all, or the active section with the greatest
// label has reached thresholdPct of the program's per-section capacity
// (inclusive). With every section full and none active the answer is also
// yes; a fully archived program never prompts.
func NeedsNewSection(sections []models.Section, maxPerSection, thresholdPct int) bool {
	if len(sections) == 0 {
		return true
	}
	if maxPerSection <= 0 {
		return false
	}

	var latest *models.Section
	anyFull := false
	for i := range sections {
		s := &sections[i]
		switch s.Status {
		case models.SectionStatusFull:
			anyFull = true
		case models.SectionStatusActive:
			if latest == nil || labelLess(latest.Label, s.Label) {
				latest = s
			}
		}
	}
	if latest == nil {
		return anyFull
	}
	return latest.CurrentEnrollments*100 >= maxPerSection*thresholdPct
}
