package output

import (
	"encoding/json"

	"github.com/pranshuparmar/portproc/pkg/model"
)

// JSONReport is the machine readable form of one run: every port with its
// resolved owners, the processes a command would target, and anything that
// was skipped along the way.
type JSONReport struct {
	Ports     []model.PortInfo `json:"ports"`
	Processes []model.Process  `json:"processes"`
	Warnings  []model.Warning  `json:"warnings"`
}

func ToJSON(r JSONReport) (string, error) {
	if r.Ports == nil {
		r.Ports = []model.PortInfo{}
	}
	if r.Processes == nil {
		r.Processes = []model.Process{}
	}
	if r.Warnings == nil {
		r.Warnings = []model.Warning{}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
