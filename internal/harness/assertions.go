package harness

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/social"
	"github.com/OpenMSCP/mscp-sdk/internal/store"
)

// identityFields hold addresses; scenarios give them as identity names.
var identityFields = map[string]bool{
	"owner":     true,
	"author":    true,
	"sender":    true,
	"recipient": true,
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %v %s", i+1, ev.Phase, ev.TxID, ev.Ops, ev.Status)
			if ev.Code != "" {
				fmt.Fprintf(&buf, " %s", ev.Code)
			}
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

// AssertionContext provides record access for evaluating assertions.
type AssertionContext struct {
	Ctx    context.Context
	Reader *social.Reader

	// Resolve maps an identity name to its address.
	Resolve func(name string) ledger.Address
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRejectionCount:
			err = assertRejectionCount(result, assertion)
		case AssertProfile, AssertPost, AssertMessage, AssertAbsent:
			if actx == nil || actx.Reader == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a reader", i, assertion.Type)
				break
			}
			switch assertion.Type {
			case AssertProfile:
				err = assertProfile(actx, assertion)
			case AssertPost:
				err = assertPost(actx, assertion)
			case AssertMessage:
				err = assertMessage(actx, assertion)
			case AssertAbsent:
				err = assertAbsent(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

func assertRejectionCount(result *Result, a Assertion) error {
	if got := result.Rejections(a.Code); got != a.Count {
		return &AssertionError{
			Type:     AssertRejectionCount,
			Expected: fmt.Sprintf("%d rejections with code %s", a.Count, a.Code),
			Actual:   fmt.Sprintf("%d rejections", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertProfile(actx *AssertionContext, a Assertion) error {
	p, err := actx.Reader.Profile(actx.Ctx, actx.Resolve(a.Owner))
	if err != nil {
		return lookupFailed(AssertProfile, fmt.Sprintf("profile of %s", a.Owner), err)
	}
	return matchFields(actx, AssertProfile, a.Expect, map[string]any{
		"owner":            p.Owner.String(),
		"username":         p.Username,
		"bio":              p.Bio,
		"avatar_reference": p.AvatarReference,
		"created_at":       p.CreatedAt,
		"updated_at":       p.UpdatedAt,
	})
}

func assertPost(actx *AssertionContext, a Assertion) error {
	author := actx.Resolve(a.Author)
	p, err := actx.Reader.Post(actx.Ctx, author, *a.TS)
	if err != nil {
		return lookupFailed(AssertPost, fmt.Sprintf("post of %s at %d", a.Author, *a.TS), err)
	}
	actual := map[string]any{
		"author":            p.Author.String(),
		"timestamp":         p.Timestamp,
		"content_reference": p.ContentReference.String(),
	}
	if _, ok := a.Expect["content"]; ok {
		content, err := actx.Reader.PostContent(actx.Ctx, author, *a.TS)
		if err != nil {
			return lookupFailed(AssertPost, "post content", err)
		}
		actual["content"] = content
	}
	return matchFields(actx, AssertPost, a.Expect, actual)
}

func assertMessage(actx *AssertionContext, a Assertion) error {
	m, err := actx.Reader.Message(actx.Ctx, actx.Resolve(a.Slot))
	if err != nil {
		return lookupFailed(AssertMessage, fmt.Sprintf("message %s", a.Slot), err)
	}
	return matchFields(actx, AssertMessage, a.Expect, map[string]any{
		"sender":            m.Sender.String(),
		"recipient":         m.Recipient.String(),
		"encrypted_content": m.EncryptedContent,
		"timestamp":         m.Timestamp,
		"read":              m.Read,
	})
}

func assertAbsent(actx *AssertionContext, a Assertion) error {
	var (
		err  error
		desc string
	)
	switch a.Record {
	case RecordProfile:
		desc = fmt.Sprintf("profile of %s", a.Owner)
		_, err = actx.Reader.Profile(actx.Ctx, actx.Resolve(a.Owner))
	case RecordPost:
		desc = fmt.Sprintf("post of %s at %d", a.Author, *a.TS)
		_, err = actx.Reader.Post(actx.Ctx, actx.Resolve(a.Author), *a.TS)
	case RecordMessage:
		desc = fmt.Sprintf("message %s", a.Slot)
		_, err = actx.Reader.Message(actx.Ctx, actx.Resolve(a.Slot))
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	actual := "record exists"
	if err != nil {
		actual = fmt.Sprintf("lookup error: %v", err)
	}
	return &AssertionError{
		Type:     AssertAbsent,
		Expected: desc + " to be absent",
		Actual:   actual,
	}
}

func lookupFailed(kind, desc string, err error) error {
	return &AssertionError{
		Type:     kind,
		Expected: desc + " to exist",
		Actual:   fmt.Sprintf("lookup error: %v", err),
	}
}

// matchFields checks expected against actual (subset semantics). Keys are
// visited in sorted order so the first reported mismatch is stable.
func matchFields(actx *AssertionContext, kind string, expected, actual map[string]any) error {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q is not a %s field", key, kind),
			}
		}
		expectedValue := expected[key]
		if name, ok := expectedValue.(string); ok && identityFields[key] {
			expectedValue = actx.Resolve(name).String()
		}
		if !valuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expected[key], expected[key]),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}
	return nil
}

// valuesEqual compares a YAML-decoded value with a record field.
// YAML integers decode as int; record integers are int64.
func valuesEqual(expected, actual any) bool {
	return reflect.DeepEqual(normalize(expected), normalize(actual))
}

func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	default:
		return v
	}
}
