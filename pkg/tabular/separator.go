package tabular

import "strings"

const separatorSampleLines = 10

// DetectSeparator picks the candidate that appears most consistently across
// the first lines of text. A candidate is only eligible when it appears more
// than once per line on average and its count variance stays below that
// average. Ties go to the earlier candidate; the default is a comma.
func DetectSeparator(text string, candidates []string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > separatorSampleLines {
		lines = lines[:separatorSampleLines]
	}

	sample := lines[:0:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			sample = append(sample, trimmed)
		}
	}
	if len(sample) == 0 {
		return ","
	}

	best, bestScore := "", 0.0
	for _, sep := range candidates {
		if sep == "" {
			continue
		}
		score, ok := separatorScore(sample, sep)
		if ok && (best == "" || score > bestScore) {
			best, bestScore = sep, score
		}
	}
	if best == "" {
		return ","
	}
	return best
}

func separatorScore(lines []string, sep string) (float64, bool) {
	counts := make([]float64, len(lines))
	var sum, peak float64
	for i, line := range lines {
		counts[i] = float64(strings.Count(line, sep))
		sum += counts[i]
		peak = max(peak, counts[i])
	}
	if peak == 0 {
		return 0, false
	}

	avg := sum / float64(len(counts))
	var variance float64
	for _, c := range counts {
		variance += (c - avg) * (c - avg)
	}
	variance /= float64(len(counts))

	if avg > 1 && variance < avg {
		return avg / (1 + variance), true
	}
	return 0, false
}
