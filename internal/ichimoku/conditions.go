package ichimoku

// ConditionSet holds the per-bar truth values of the ten strategy
// predicates. Pairs like TenkanAboveKijun/TenkanBelowKijun are not
// mutually exclusive: an exact tie leaves both false.
type ConditionSet struct {
	PriceAboveCloud  bool `json:"price_above_cloud"`
	PriceBelowCloud  bool `json:"price_below_cloud"`
	TenkanAboveKijun bool `json:"tenkan_above_kijun"`
	TenkanBelowKijun bool `json:"tenkan_below_kijun"`
	SpanAAboveSpanB  bool `json:"span_a_above_span_b"`
	SpanABelowSpanB  bool `json:"span_a_below_span_b"`
	ChikouAbovePrice bool `json:"chikou_above_price"`
	ChikouBelowPrice bool `json:"chikou_below_price"`
	ChikouAboveCloud bool `json:"chikou_above_cloud"`
	ChikouBelowCloud bool `json:"chikou_below_cloud"`
}

// Conditions evaluates all ten predicates for every bar of the frame.
// The final bar is the currently forming period and is forced to
// all-false regardless of its raw comparison values: an unclosed bar must
// never contribute a published predicate.
//
// Any comparison with a NaN operand is false, which handles the
// insufficient-history regions of the shifted series without special
// cases.
func (f *Frame) Conditions() []ConditionSet {
	n := f.Len()
	sets := make([]ConditionSet, n)
	offset := f.Params.ChikouOffset

	for i := 0; i < n; i++ {
		closePrice := f.Series[i].Close

		cs := ConditionSet{
			PriceAboveCloud:  closePrice > f.CloudTop[i],
			PriceBelowCloud:  closePrice < f.CloudBottom[i],
			TenkanAboveKijun: f.TenkanSen[i] > f.KijunSen[i],
			TenkanBelowKijun: f.TenkanSen[i] < f.KijunSen[i],
			SpanAAboveSpanB:  f.SenkouSpanA[i] > f.SenkouSpanB[i],
			SpanABelowSpanB:  f.SenkouSpanA[i] < f.SenkouSpanB[i],
		}

		// The lagging-span comparisons look back chikou_offset bars: the
		// current close against the historical close and cloud.
		if hist := i - offset; hist >= 0 {
			histClose := f.Series[hist].Close
			cs.ChikouAbovePrice = closePrice > histClose
			cs.ChikouBelowPrice = closePrice < histClose
			cs.ChikouAboveCloud = closePrice > f.CloudTop[hist]
			cs.ChikouBelowCloud = closePrice < f.CloudBottom[hist]
		}

		sets[i] = cs
	}

	if n > 0 {
		sets[n-1] = ConditionSet{}
	}

	return sets
}
