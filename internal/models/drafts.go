package models

// DraftFrom prepares a new shot based on a prior one. Only the reusable
// setup is carried over: grind setting, dose and the three equipment
// references. Yield, time, rating and notes describe the outcome of that
// particular shot and are left empty.
func DraftFrom(template *Extraction) *CreateExtractionRequest {
	if template == nil {
		return &CreateExtractionRequest{}
	}
	return &CreateExtractionRequest{
		GrindSetting: template.GrindSetting,
		DoseIn:       clonePtr(template.DoseIn),
		BeanRKey:     template.BeanRKey,
		GrinderRKey:  template.GrinderRKey,
		BrewerRKey:   template.BrewerRKey,
	}
}

// DefaultDraft prepares an empty shot with the configured default grinder
// and brewer pre-selected. The first equipment whose name matches wins;
// an empty default name selects nothing.
func DefaultDraft(defaultGrinderName, defaultBrewerName string, grinders []*Grinder, brewers []*Brewer) *CreateExtractionRequest {
	draft := &CreateExtractionRequest{}
	if defaultGrinderName != "" {
		for _, g := range grinders {
			if g.Name == defaultGrinderName {
				draft.GrinderRKey = g.RKey
				break
			}
		}
	}
	if defaultBrewerName != "" {
		for _, b := range brewers {
			if b.Name == defaultBrewerName {
				draft.BrewerRKey = b.RKey
				break
			}
		}
	}
	return draft
}
