package output

import (
	"encoding/json"

	"github.com/rgehrsitz/kpisynth/internal/domain"
)

// JSONFormatter renders the whole dataset as JSON
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
}

func (jf JSONFormatter) Name() string { return "json" }

func (jf JSONFormatter) Format(ds *domain.Dataset) ([]byte, error) {
	if jf.Pretty {
		return json.MarshalIndent(ds, "", "  ")
	}
	return json.Marshal(ds)
}
