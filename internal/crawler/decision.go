package crawler

import "fmt"

// Reason explains a visitation decision. The concrete variants are
// PageLimitReason, VerbatimReason and RouteReason; the set is closed.
type Reason interface {
	Kind() string
	isReason()
}

// PageLimitReason: the run already processed as many pages as allowed.
type PageLimitReason struct{}

// VerbatimReason: the decision was made on the exact address.
type VerbatimReason struct {
	Href string
}

// RouteReason: the decision was made on the manifest pattern the address matches.
type RouteReason struct {
	Route string
}

func (PageLimitReason) Kind() string { return "PageLimit" }
func (VerbatimReason) Kind() string  { return "Verbatim" }
func (RouteReason) Kind() string     { return "Route" }

func (PageLimitReason) isReason() {}
func (VerbatimReason) isReason()  {}
func (RouteReason) isReason()     {}

// Decision is the outcome of the visitation policy for one candidate.
type Decision struct {
	ShouldProcess bool
	Reason        Reason
}

// String renders the decision for logs.
func (d Decision) String() string {
	switch r := d.Reason.(type) {
	case PageLimitReason:
		return fmt.Sprintf("process=%t reason=PageLimit", d.ShouldProcess)
	case VerbatimReason:
		return fmt.Sprintf("process=%t reason=Verbatim(%s)", d.ShouldProcess, r.Href)
	case RouteReason:
		return fmt.Sprintf("process=%t reason=Route(%s)", d.ShouldProcess, r.Route)
	default:
		panic(fmt.Sprintf("crawler: unknown reason %T", d.Reason))
	}
}
