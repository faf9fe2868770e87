// Package models defines the event and market snapshots fetched from the
// Gamma API. Decoding is deliberately tolerant: the API mixes native arrays
// with JSON-encoded string arrays and numbers with numeric strings, so all
// of that is normalized here and nowhere else.
package models

// Event is an immutable snapshot of a Polymarket event. Only its ID is ever
// persisted; everything else is fetched, rendered, and discarded.
type Event struct {
	ID        FlexString `json:"id"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	Markets   []Market   `json:"markets"`
	Liquidity *FlexFloat `json:"liquidity"`
	Volume    *FlexFloat `json:"volume"`
	EndDate   string     `json:"endDate"`
}

// VolumeValue returns the event-level volume, with absent or null treated
// as zero.
func (e *Event) VolumeValue() float64 {
	if e.Volume == nil {
		return 0
	}
	return float64(*e.Volume)
}

// Market is a single question nested under an event.
type Market struct {
	Question      string     `json:"question"`
	Outcomes      StringList `json:"outcomes"`
	OutcomePrices FloatList  `json:"outcomePrices"`
	Liquidity     *FlexFloat `json:"liquidity"`
	LiquidityNum  *FlexFloat `json:"liquidityNum"`
	Volume        *FlexFloat `json:"volume"`
	VolumeNum     *FlexFloat `json:"volumeNum"`
	EndDate       string     `json:"endDate"`
	EndDateISO    string     `json:"end_date_iso"`
}

// LiquidityValue prefers liquidityNum over liquidity, defaulting to zero.
func (m *Market) LiquidityValue() float64 {
	if m.LiquidityNum != nil {
		return float64(*m.LiquidityNum)
	}
	if m.Liquidity != nil {
		return float64(*m.Liquidity)
	}
	return 0
}

// VolumeValue prefers volumeNum over volume, defaulting to zero.
func (m *Market) VolumeValue() float64 {
	if m.VolumeNum != nil {
		return float64(*m.VolumeNum)
	}
	if m.Volume != nil {
		return float64(*m.Volume)
	}
	return 0
}

// EndDateValue returns whichever end-date field is populated.
func (m *Market) EndDateValue() string {
	if m.EndDate != "" {
		return m.EndDate
	}
	return m.EndDateISO
}
