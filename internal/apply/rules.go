package apply

import "strings"

// eligibilityAnswer decides a work-eligibility question from its label.
// Unmatched questions are left at the page default.
func eligibilityAnswer(label string) (string, bool) {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "sponsorship"):
		return "NO", true
	case strings.Contains(l, "government"):
		return "NEVER", true
	default:
		return "", false
	}
}

// chooseOption returns the index of the option labelled "yes", otherwise the
// last one in rendered order. -1 when there are no options.
func chooseOption(labels []string) int {
	for i, l := range labels {
		if strings.EqualFold(strings.TrimSpace(l), "yes") {
			return i
		}
	}
	return len(labels) - 1
}
