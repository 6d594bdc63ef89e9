package download

// Selection is the current area/projection/format choice.
type Selection struct {
	Area       string `json:"area" doc:"Selected area code"`
	Projection string `json:"projection" doc:"Selected projection code"`
	Format     string `json:"format" doc:"Selected format name"`
}

// State is a snapshot of the wizard: the selection plus the option sets
// valid for it.
type State struct {
	Selection   Selection    `json:"selection"`
	Areas       []Area       `json:"areas"`
	Projections []Projection `json:"projections"`
	Formats     []Format     `json:"formats"`
	Complete    bool         `json:"complete" doc:"Whether area, projection and format are all chosen"`
}

// Wizard tracks the cascading selection for one dataset. Option sets are
// recomputed from the raw entries on every change; a selection that is not
// valid for the new sets is cleared, and a set with a single option selects
// it.
type Wizard struct {
	entries []Entry
	sel     Selection
}

// NewWizard creates a wizard over entries.
func NewWizard(entries []Entry) *Wizard {
	w := &Wizard{entries: entries}
	areas := UniqueAreas(entries)
	if len(areas) == 1 {
		w.SelectArea(areas[0].Code)
	}
	return w
}

// Empty reports whether there is nothing to choose from.
func (w *Wizard) Empty() bool {
	return len(UniqueAreas(w.entries)) == 0
}

// SelectArea changes the area and re-resolves projections and formats.
// Unknown codes clear the whole selection.
func (w *Wizard) SelectArea(code string) State {
	if !hasArea(UniqueAreas(w.entries), code) {
		w.sel = Selection{}
		return w.State()
	}
	w.sel.Area = code

	projections, _ := ProjectionsAndFormatsForArea(w.entries, code)
	if !hasProjection(projections, w.sel.Projection) {
		w.sel.Projection = ""
	}
	if w.sel.Projection == "" && len(projections) == 1 {
		w.sel.Projection = projections[0].Code
	}
	w.resolveFormat()
	return w.State()
}

// SelectProjection changes the projection within the current area.
func (w *Wizard) SelectProjection(code string) State {
	if hasProjection(Projections(w.entries, w.sel.Area), code) {
		w.sel.Projection = code
	} else {
		w.sel.Projection = ""
	}
	w.resolveFormat()
	return w.State()
}

// SelectFormat changes the format within the current area and projection.
func (w *Wizard) SelectFormat(name string) State {
	if hasFormat(Formats(w.entries, w.sel.Area, w.sel.Projection), name) {
		w.sel.Format = name
	} else {
		w.sel.Format = ""
	}
	return w.State()
}

func (w *Wizard) resolveFormat() {
	formats := Formats(w.entries, w.sel.Area, w.sel.Projection)
	if !hasFormat(formats, w.sel.Format) {
		w.sel.Format = ""
	}
	if w.sel.Format == "" && len(formats) == 1 {
		w.sel.Format = formats[0].Name
	}
}

// State returns the current selection and option sets.
func (w *Wizard) State() State {
	projections, _ := ProjectionsAndFormatsForArea(w.entries, w.sel.Area)
	return State{
		Selection:   w.sel,
		Areas:       UniqueAreas(w.entries),
		Projections: projections,
		Formats:     Formats(w.entries, w.sel.Area, w.sel.Projection),
		Complete:    w.sel.Area != "" && w.sel.Projection != "" && w.sel.Format != "",
	}
}

func hasArea(areas []Area, code string) bool {
	for _, a := range areas {
		if a.Code == code {
			return true
		}
	}
	return false
}

func hasProjection(projections []Projection, code string) bool {
	for _, p := range projections {
		if p.Code == code && code != "" {
			return true
		}
	}
	return false
}

func hasFormat(formats []Format, name string) bool {
	for _, f := range formats {
		if f.Name == name && name != "" {
			return true
		}
	}
	return false
}
