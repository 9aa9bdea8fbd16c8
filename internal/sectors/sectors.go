// Package sectors provides a ports.SectorProvider backed by a static
// symbol->sector map, the minimum needed to exercise
// risk.SectorExposureExceeds (spec §4.4 step 8) without a live broker
// metadata client. The teacher's universe.MetadataEnricher fills this
// same field from a broker's GetSecurityMetadata call; this adapter
// trades that network round trip for a config-supplied table since
// the engine has no broker integration of its own (spec §4 Non-goals).
package sectors

// StaticProvider answers SectorOf from a fixed symbol->sector table.
type StaticProvider struct {
	bySymbol map[string]string
}

// NewStaticProvider builds a StaticProvider from a symbol->sector map.
// Symbols absent from bySymbol report ok=false, which
// risk.SectorExposureExceeds treats as "no sector constraint applies."
func NewStaticProvider(bySymbol map[string]string) *StaticProvider {
	return &StaticProvider{bySymbol: bySymbol}
}

func (p *StaticProvider) SectorOf(symbol string) (string, bool) {
	sector, ok := p.bySymbol[symbol]
	return sector, ok
}
