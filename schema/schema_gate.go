package schema

// QualityGate is the parsed QualityGateStatus response of the viewer.
type QualityGate struct {
	Passed                bool   `json:"passed"`
	Message               string `json:"message"`
	URL                   string `json:"url"`
	Gates                 []Gate `json:"gates"`
	AnnotationsAPIV1Links []Link `json:"annotationsApiV1Links"`
}

// Gate is a named set of conditions.
type Gate struct {
	Name       string      `json:"name"`
	Passed     bool        `json:"passed"`
	Conditions []Condition `json:"conditions"`
}

// Condition is a single pass/fail rule of a gate.
type Condition struct {
	Passed                bool              `json:"passed"`
	Skipped               bool              `json:"skipped"`
	Error                 bool              `json:"error"`
	Message               string            `json:"message"`
	Details               *ConditionDetails `json:"details,omitempty"`
	AnnotationsAPIV1Links []Link            `json:"annotationsApiV1Links"`

	// Annotations is filled after the annotation links have been fetched.
	Annotations []ViewerAnnotation `json:"-"`
}

// Failing reports whether the condition counts against the gate.
func (c Condition) Failing() bool {
	return !c.Passed && !c.Skipped
}

// ConditionDetails lists the items that made a condition fail.
type ConditionDetails struct {
	ItemTypes []string           `json:"itemTypes"`
	DataKeys  map[string]DataKey `json:"dataKeys"`
	ItemCount int                `json:"itemCount"`
	ItemLimit int                `json:"itemLimit"`
	Items     []Item             `json:"items"`
}

// DataKey describes a column of the item data.
type DataKey struct {
	Title    string `json:"title"`
	Order    int    `json:"order"`
	ItemType string `json:"itemType"`
}

// Item is one offending entity of a condition.
type Item struct {
	ItemType string    `json:"itemType"`
	Name     string    `json:"name"`
	Link     string    `json:"link"`
	Data     ItemData  `json:"data"`
	Blocking *Blocking `json:"blocking,omitempty"`
}

// ItemData holds the measured values of an item.
type ItemData struct {
	ActualValue Value `json:"actualValue"`
}

// Value is a measured value with its display form.
type Value struct {
	FormattedValue string  `json:"formattedValue"`
	Value          float64 `json:"value"`
}

// Blocking describes the blocking tier of an item or annotation.
type Blocking struct {
	State BlockingState `json:"state"`
	After int64         `json:"after,omitempty"`
}

// Link is a relative viewer API link.
type Link struct {
	URL string `json:"url"`
}

// ViewerAnnotation is a single finding returned by the viewer annotations API.
type ViewerAnnotation struct {
	FullPath string    `json:"fullPath"`
	Path     string    `json:"-"` // FullPath without the HIE://project/branch/ prefix
	Line     int       `json:"line"`
	Level    int       `json:"level"`
	Category string    `json:"category"`
	Rule     string    `json:"rule"`
	Msg      string    `json:"msg"`
	Type     string    `json:"type"`
	Count    int       `json:"count"`
	Blocking *Blocking `json:"blocking,omitempty"`
}

// FailedConditions counts the failing, non-skipped conditions of the quality gate.
func (qg QualityGate) FailedConditions() int {
	n := 0
	for _, g := range qg.Gates {
		for _, c := range g.Conditions {
			if c.Failing() {
				n++
			}
		}
	}
	return n
}

// Normalize enforces that the quality gate fails iff a non-skipped condition fails.
// Responses without any condition keep the viewer's own verdict.
func (qg *QualityGate) Normalize() {
	conditions := 0
	for i := range qg.Gates {
		gatePassed := true
		for _, c := range qg.Gates[i].Conditions {
			conditions++
			if c.Failing() {
				gatePassed = false
			}
		}
		if len(qg.Gates[i].Conditions) > 0 {
			qg.Gates[i].Passed = gatePassed
		}
	}
	if conditions > 0 {
		qg.Passed = qg.FailedConditions() == 0
	}
}
