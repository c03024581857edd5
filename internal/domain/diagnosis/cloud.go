package diagnosis

// Font size bounds of the dashboard word cloud, in pixels.
const (
	DefaultMinFont = 14.0
	DefaultMaxFont = 64.0
)

// CloudOptions bounds the word cloud. Zero values take the defaults; a
// non-positive Limit keeps every word.
type CloudOptions struct {
	MinFont float64
	MaxFont float64
	Limit   int
}

// WordCloud assigns each frequency a font size linearly interpolated between
// MinFont (rarest) and MaxFont (most frequent). When every count is equal all
// words get the midpoint. Entries with a non-positive count or empty text are
// skipped.
func WordCloud(freqs []Frequency, opts CloudOptions) []Word {
	if opts.MinFont <= 0 {
		opts.MinFont = DefaultMinFont
	}
	if opts.MaxFont <= 0 {
		opts.MaxFont = DefaultMaxFont
	}
	if opts.MaxFont < opts.MinFont {
		opts.MinFont, opts.MaxFont = opts.MaxFont, opts.MinFont
	}

	kept := make([]Frequency, 0, len(freqs))
	for _, f := range freqs {
		if f.Count > 0 && f.Diagnosis != "" {
			kept = append(kept, f)
		}
	}
	if opts.Limit > 0 && len(kept) > opts.Limit {
		kept = kept[:opts.Limit]
	}
	if len(kept) == 0 {
		return []Word{}
	}

	lo, hi := kept[0].Count, kept[0].Count
	for _, f := range kept[1:] {
		lo = min(lo, f.Count)
		hi = max(hi, f.Count)
	}

	words := make([]Word, len(kept))
	for i, f := range kept {
		size := (opts.MinFont + opts.MaxFont) / 2
		if hi > lo {
			t := float64(f.Count-lo) / float64(hi-lo)
			size = opts.MinFont + t*(opts.MaxFont-opts.MinFont)
		}
		words[i] = Word{Text: f.Diagnosis, Count: f.Count, FontSize: size}
	}
	return words
}
