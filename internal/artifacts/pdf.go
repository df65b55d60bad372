package artifacts

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Metadata is the document-info subset stamped onto a captured PDF.
type Metadata struct {
	Title    string
	Producer string
}

// StampMetadata validates pdf, then stamps Title/Producer into its Info
// dictionary via pdfcpu, returning the re-written bytes. An empty Metadata
// field is omitted rather than clearing any existing value.
func StampMetadata(pdf []byte, meta Metadata) ([]byte, error) {
	conf := model.NewDefaultConfiguration()

	if err := api.Validate(bytes.NewReader(pdf), conf); err != nil {
		return nil, err
	}

	props := map[string]string{}
	if meta.Title != "" {
		props["Title"] = meta.Title
	}
	if meta.Producer != "" {
		props["Producer"] = meta.Producer
	}
	if len(props) == 0 {
		return pdf, nil
	}

	var out bytes.Buffer
	if err := api.AddProperties(bytes.NewReader(pdf), &out, props, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
