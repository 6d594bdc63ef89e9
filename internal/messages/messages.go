// Package messages holds the short user-facing strings returned for policy
// rejections and degraded paths. Keys are the English texts; Norwegian
// Bokmål translations are registered in the default x/text catalog.
package messages

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys.
const (
	DuplicateLayer    = "The layer %q is already shown from the dataset %q."
	DatasetAdded      = "The dataset %q has already been added."
	UnknownDataset    = "Unknown dataset %q."
	LayerUnavailable  = "The layer %q is not available in this dataset."
	NoDownloadOptions = "No download options are available; using the standard download."
	NoDownloadAtAll   = "This dataset has no download available."
	MissingService    = "No map service was given."
	Untitled          = "Untitled dataset"
)

// DefaultLang is used when no language is configured.
const DefaultLang = "nb"

var bokmal = language.MustParse("nb")

func init() {
	translations := map[string]string{
		DuplicateLayer:    "Laget %q vises allerede fra datasettet %q.",
		DatasetAdded:      "Datasettet %q er allerede lagt til.",
		UnknownDataset:    "Ukjent datasett %q.",
		LayerUnavailable:  "Laget %q er ikke tilgjengelig i dette datasettet.",
		NoDownloadOptions: "Ingen nedlastingsvalg tilgjengelig, bruker standard nedlasting.",
		NoDownloadAtAll:   "Dette datasettet har ingen nedlasting tilgjengelig.",
		MissingService:    "Ingen karttjeneste ble oppgitt.",
		Untitled:          "Datasett uten navn",
	}
	for key, msg := range translations {
		_ = message.SetString(bokmal, key, msg)
	}
}

// Printer formats message keys for one language.
type Printer struct {
	p *message.Printer
}

// For returns a printer for lang. Unknown or malformed tags fall back to English.
func For(lang string) Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return Printer{p: message.NewPrinter(tag)}
}

// Sprintf formats key with args.
func (p Printer) Sprintf(key string, args ...any) string {
	if p.p == nil {
		return message.NewPrinter(language.English).Sprintf(key, args...)
	}
	return p.p.Sprintf(key, args...)
}
