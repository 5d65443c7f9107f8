// File: api/schemas/descriptor.go
package schemas

// ElementDescriptor is the symbolic identity of one UI element. Each of the
// seventeen identifying fields is either meaningfully populated or nil; an
// empty string is never stored, so consumers can rely on nil alone to mean
// "absent". The zero value (all nil) describes nothing and will never resolve.
type ElementDescriptor struct {
	TagType     *string `json:"tagType,omitempty"`
	ID          *string `json:"id,omitempty"`
	Name        *string `json:"name,omitempty"`
	Selector    *string `json:"selector,omitempty"`
	CSSSelector *string `json:"cssSelector,omitempty"`
	XPath       *string `json:"xpath,omitempty"`
	Text        *string `json:"text,omitempty"`
	Placeholder *string `json:"placeholder,omitempty"`
	DataTestID  *string `json:"dataTestId,omitempty"`
	AriaLabel   *string `json:"ariaLabel,omitempty"`
	Role        *string `json:"role,omitempty"`
	Title       *string `json:"title,omitempty"`
	Alt         *string `json:"alt,omitempty"`
	ClassName   *string `json:"className,omitempty"`
	Value       *string `json:"value,omitempty"`
	Href        *string `json:"href,omitempty"`
	Src         *string `json:"src,omitempty"`

	// Healed is set when a self-healing strategy replaced Selector during the
	// current run. It is never persisted back by this package.
	Healed bool `json:"healed,omitempty"`

	// Fingerprint carries contextual metadata used only for healing, never for
	// primary resolution.
	Fingerprint *Fingerprint `json:"fingerprint,omitempty"`
}

// Fingerprint is the recovery metadata captured alongside a descriptor.
type Fingerprint struct {
	Attributes FingerprintAttributes `json:"attributes"`
	Context    FingerprintContext    `json:"context"`
}

// FingerprintAttributes are intrinsic properties of the element at capture time.
type FingerprintAttributes struct {
	Type      string `json:"type,omitempty"`
	Role      string `json:"role,omitempty"`
	AriaLabel string `json:"ariaLabel,omitempty"`
	ClassList string `json:"classList,omitempty"`
}

// FingerprintContext describes the element's surroundings at capture time.
type FingerprintContext struct {
	NearbyText string `json:"nearbyText,omitempty"`
	ParentTag  string `json:"parentTag,omitempty"`
	Heading    string `json:"heading,omitempty"`
}

// Attr returns a pointer suitable for the descriptor's optional fields,
// mapping the empty string to the absent marker.
func Attr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// AttrValue dereferences an optional field, returning "" when absent.
func AttrValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// HasFingerprint reports whether healing metadata is available.
func (d *ElementDescriptor) HasFingerprint() bool {
	return d != nil && d.Fingerprint != nil
}

// BestSelector returns the first non-absent of [ID, Selector, CSSSelector,
// XPath] expressed as a query string, or "" when none is set. It backs the
// advisory pre-wait in the resolution orchestrator.
func (d *ElementDescriptor) BestSelector() string {
	switch {
	case d.ID != nil:
		return "#" + *d.ID
	case d.Selector != nil:
		return *d.Selector
	case d.CSSSelector != nil:
		return *d.CSSSelector
	case d.XPath != nil:
		return *d.XPath
	}
	return ""
}

// SelectorSnapshot captures the selector-family fields for before/after healing
// reports. Absent fields are recorded as "".
func (d *ElementDescriptor) SelectorSnapshot() map[string]string {
	return map[string]string{
		"id":          AttrValue(d.ID),
		"name":        AttrValue(d.Name),
		"selector":    AttrValue(d.Selector),
		"cssSelector": AttrValue(d.CSSSelector),
		"xpath":       AttrValue(d.XPath),
		"text":        AttrValue(d.Text),
		"placeholder": AttrValue(d.Placeholder),
		"dataTestId":  AttrValue(d.DataTestID),
	}
}

// LiveAttributes is the attribute set read back from a resolved element. It is
// the wire shape returned by the page capability's DescribeElement and is used
// to refresh a descriptor after a successful resolution.
type LiveAttributes struct {
	TagType     string `json:"tagType"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Selector    string `json:"selector"`
	CSSSelector string `json:"cssSelector"`
	XPath       string `json:"xpath"`
	Text        string `json:"text"`
	Placeholder string `json:"placeholder"`
	DataTestID  string `json:"dataTestId"`
	AriaLabel   string `json:"ariaLabel"`
	Role        string `json:"role"`
	Title       string `json:"title"`
	Alt         string `json:"alt"`
	ClassName   string `json:"className"`
	Value       string `json:"value"`
	Href        string `json:"href"`
	Src         string `json:"src"`
}

// Refresh overwrites the seventeen identifying fields from the live element.
// The fingerprint and the Healed flag are left untouched.
func (d *ElementDescriptor) Refresh(live LiveAttributes) {
	d.TagType = Attr(live.TagType)
	d.ID = Attr(live.ID)
	d.Name = Attr(live.Name)
	d.Selector = Attr(live.Selector)
	d.CSSSelector = Attr(live.CSSSelector)
	d.XPath = Attr(live.XPath)
	d.Text = Attr(live.Text)
	d.Placeholder = Attr(live.Placeholder)
	d.DataTestID = Attr(live.DataTestID)
	d.AriaLabel = Attr(live.AriaLabel)
	d.Role = Attr(live.Role)
	d.Title = Attr(live.Title)
	d.Alt = Attr(live.Alt)
	d.ClassName = Attr(live.ClassName)
	d.Value = Attr(live.Value)
	d.Href = Attr(live.Href)
	d.Src = Attr(live.Src)
}
