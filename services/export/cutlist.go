package export

import (
	"github.com/gocarina/gocsv"
)

// CutListEntry is one kept segment and where it lands in the output.
type CutListEntry struct {
	Index       int     `csv:"index"`
	SourceStart float64 `csv:"source_start"`
	SourceEnd   float64 `csv:"source_end"`
	OutputStart float64 `csv:"output_start"`
	Duration    float64 `csv:"duration"`
}

func (p Plan) CutList() []*CutListEntry {
	var entries []*CutListEntry
	var offset float64
	for i, r := range p.Kept {
		entries = append(entries, &CutListEntry{
			Index:       i + 1,
			SourceStart: r.Start,
			SourceEnd:   r.End,
			OutputStart: offset,
			Duration:    r.Duration(),
		})
		offset += r.Duration()
	}
	return entries
}

// CutListCSV renders the cut list with a header row.
func (p Plan) CutListCSV() (string, error) {
	entries := p.CutList()
	if entries == nil {
		entries = []*CutListEntry{}
	}
	return gocsv.MarshalString(&entries)
}
