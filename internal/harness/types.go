package harness

// TraceEvent records one submitted transaction.
type TraceEvent struct {
	Phase     string   `json:"phase"` // "setup" or "flow"
	Step      int      `json:"step"`
	Name      string   `json:"name,omitempty"`
	TxID      string   `json:"tx_id"`
	Ops       []string `json:"ops"`
	Status    string   `json:"status"`
	Code      string   `json:"code,omitempty"`
	Index     *int     `json:"index,omitempty"`
	Seq       int64    `json:"seq,omitempty"`
	Timestamp int64    `json:"timestamp"`

	// Detail is the rejection message. It names addresses, so it is kept
	// out of golden traces.
	Detail string `json:"-"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every submitted transaction in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a transaction to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// Rejections counts rejected transactions with the given code.
func (r *Result) Rejections(code string) int {
	n := 0
	for _, ev := range r.Trace {
		if ev.Status == StatusRejected && ev.Code == code {
			n++
		}
	}
	return n
}
