package google

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
)

var errInvalidJSON = errors.New("invalid JSON")

// event is the closed set of signals in a GenerateContentResponse.
type event interface{ isEvent() }

type textPart struct{ text string }

// callPart is a complete function call. id is empty when the vendor did
// not assign one.
type callPart struct {
	id   string
	name string
	args string
}

type responsePart struct {
	id      string
	name    string
	content string
}

type usageReport struct{ usage api.Usage }

type streamFailure struct{ err *api.APIError }

func (textPart) isEvent()      {}
func (callPart) isEvent()      {}
func (responsePart) isEvent()  {}
func (usageReport) isEvent()   {}
func (streamFailure) isEvent() {}

// decode reads one GenerateContentResponse. Parts of the first candidate
// become events in order; thought parts are skipped.
func decode(data string) ([]event, error) {
	if !gjson.Valid(data) {
		return nil, errInvalidJSON
	}
	doc := gjson.Parse(data)
	if !doc.IsObject() {
		return nil, errors.New("frame is not a JSON object")
	}

	if e := doc.Get("error"); e.Exists() {
		code := e.Get("status").String()
		if code == "" {
			code = e.Get("code").String()
		}
		return []event{streamFailure{err: api.NewStreamError(code, e.Get("message").String())}}, nil
	}

	var events []event
	doc.Get("candidates.0.content.parts").ForEach(func(_, part gjson.Result) bool {
		switch {
		case part.Get("thought").Bool():
		case part.Get("functionCall").Exists():
			fc := part.Get("functionCall")
			events = append(events, callPart{
				id:   fc.Get("id").String(),
				name: fc.Get("name").String(),
				args: fc.Get("args").Raw,
			})
		case part.Get("functionResponse").Exists():
			fr := part.Get("functionResponse")
			events = append(events, responsePart{
				id:      fr.Get("id").String(),
				name:    fr.Get("name").String(),
				content: responseContent(fr.Get("response")),
			})
		case part.Get("text").Exists():
			events = append(events, textPart{text: part.Get("text").String()})
		}
		return true
	})

	if u := doc.Get("usageMetadata"); u.Exists() {
		events = append(events, usageReport{usage: api.Usage{
			InputTokens:  int(u.Get("promptTokenCount").Int()),
			OutputTokens: int(u.Get("candidatesTokenCount").Int()),
			TotalTokens:  int(u.Get("totalTokenCount").Int()),
		}})
	}
	return events, nil
}

// responseContent prefers a string "content" or "result" field and falls
// back to the raw response object.
func responseContent(r gjson.Result) string {
	for _, key := range []string{"content", "result"} {
		if v := r.Get(key); v.Type == gjson.String {
			return v.String()
		}
	}
	return r.Raw
}
