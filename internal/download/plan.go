package download

import "github.com/joeblew999/kartlag/internal/messages"

// Mode is how a download is carried out.
type Mode string

const (
	ModeWizard      Mode = "wizard"
	ModeDirect      Mode = "direct"
	ModeUnavailable Mode = "unavailable"
)

// Plan tells the download UI whether to open the selection wizard or fall
// back to the dataset's direct download URL.
type Plan struct {
	Mode    Mode   `json:"mode" enum:"wizard,direct,unavailable" doc:"Download path"`
	URL     string `json:"url,omitempty" doc:"Direct download URL for the fallback path"`
	Message string `json:"message,omitempty" doc:"User-facing explanation for the fallback"`
}

// PlanFor picks the download path for a dataset. Without any area options
// the standard direct download is used instead of an empty wizard.
func PlanFor(entries []Entry, directURL string, p messages.Printer) Plan {
	if len(UniqueAreas(entries)) > 0 {
		return Plan{Mode: ModeWizard}
	}
	if directURL == "" {
		return Plan{Mode: ModeUnavailable, Message: p.Sprintf(messages.NoDownloadAtAll)}
	}
	return Plan{Mode: ModeDirect, URL: directURL, Message: p.Sprintf(messages.NoDownloadOptions)}
}
