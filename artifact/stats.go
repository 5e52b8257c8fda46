package artifact

// Stats reports the outcome of one compression run.
type Stats struct {
	OriginalBytes   uint64  `json:"original_size"`
	CompressedBytes uint64  `json:"compressed_size"`
	Ratio           float64 `json:"compression_ratio"`
	TemplateCount   int     `json:"template_count"`
	LogCount        uint64  `json:"log_count"`
	SkippedLines    uint64  `json:"skipped_lines"`
	TruncatedLines  uint64  `json:"truncated_lines"`
	// CoveragePercent is the share of logs matched by a real (non-synthetic)
	// template.
	CoveragePercent float64 `json:"coverage_percentage"`
	ElapsedMS       int64   `json:"compression_time_ms"`
}

func (s Stats) fillRatio() Stats {
	if s.CompressedBytes > 0 {
		s.Ratio = float64(s.OriginalBytes) / float64(s.CompressedBytes)
	}

	return s
}
