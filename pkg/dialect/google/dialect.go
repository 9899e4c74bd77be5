// Package google reads Gemini generateContent output.
//
// Every frame is a whole GenerateContentResponse. Function calls arrive
// with complete arguments and usually without an id, so the dialect
// synthesizes one and records it in the caller's Conversation. API version
// routing is handled by the negotiate package, not here.
package google

import (
	"github.com/tidwall/gjson"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/completion"
	"github.com/shinshin86/aituber-onair-sub001/pkg/dialect"
	"github.com/shinshin86/aituber-onair-sub001/pkg/sse"
)

// Name is the dialect label.
const Name = "google"

// Dialect implements dialect.Dialect for Gemini.
type Dialect struct {
	conv  *Conversation
	newID func() string
}

var _ dialect.Dialect = (*Dialect)(nil)

// Option configures a Dialect.
type Option func(*Dialect)

// WithIDGenerator replaces api.NewToolCallID for synthesized call ids.
func WithIDGenerator(fn func() string) Option {
	return func(d *Dialect) { d.newID = fn }
}

// New returns a Gemini dialect recording synthesized ids into conv. A nil
// conv disables recording.
func New(conv *Conversation, opts ...Option) *Dialect {
	d := &Dialect{conv: conv, newID: api.NewToolCallID}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dialect) Name() string   { return Name }
func (d *Dialect) Mode() sse.Mode { return sse.ModeData }

// Reduce applies one GenerateContentResponse frame.
func (d *Dialect) Reduce(st *completion.State, f sse.Frame) error {
	events, err := decode(f.Data)
	if err != nil {
		return dialect.Malformed(Name, f, err)
	}
	return d.apply(st, events)
}

func (d *Dialect) apply(st *completion.State, events []event) error {
	for _, ev := range events {
		switch ev := ev.(type) {
		case textPart:
			st.AppendText(ev.text)
		case callPart:
			id := ev.id
			if id == "" {
				id = d.newID()
			}
			if d.conv != nil {
				d.conv.Record(id, ev.name)
			}
			key := st.Tools.NextKey()
			st.Tools.Start(key, id, ev.name, "")
			st.Tools.AppendArgs(key, ev.args)
			if _, err := st.Tools.Finish(key); err != nil {
				return err
			}
		case responsePart:
			st.AppendBlock(api.ToolResultBlock{ToolUseID: d.resultID(ev), Content: ev.content})
		case usageReport:
			u := ev.usage
			st.Usage = &u
		case streamFailure:
			return ev.err
		}
	}
	return nil
}

// resultID resolves the call a functionResponse answers: its own id, the
// latest call recorded for its name, or the name itself.
func (d *Dialect) resultID(ev responsePart) string {
	if ev.id != "" {
		return ev.id
	}
	if d.conv != nil {
		if id, ok := d.conv.LatestID(ev.name); ok {
			return id
		}
	}
	return ev.name
}

// Parse converts a non-streaming generateContent body. A JSON array of
// responses, as returned by streamGenerateContent without alt=sse, is
// accepted too.
func (d *Dialect) Parse(body []byte) (*api.ToolChatCompletion, error) {
	if !gjson.ValidBytes(body) {
		return nil, dialect.MalformedBody(Name, errInvalidJSON)
	}

	var docs []string
	doc := gjson.ParseBytes(body)
	if doc.IsArray() {
		doc.ForEach(func(_, v gjson.Result) bool {
			docs = append(docs, v.Raw)
			return true
		})
	} else {
		docs = append(docs, doc.Raw)
	}

	st := completion.NewState(nil)
	for _, raw := range docs {
		events, err := decode(raw)
		if err != nil {
			return nil, dialect.MalformedBody(Name, err)
		}
		if err := d.apply(st, events); err != nil {
			return nil, err
		}
	}
	return completion.Finalize(st)
}
