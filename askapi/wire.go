// Package askapi implements the JSON protocol spoken with the /ask endpoint:
// a client used by the chat front-ends and the codec shared with the server.
package askapi

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// Path is where the endpoint is mounted.
	Path = "/ask"

	QuestionField = "user_q"
	AnswerField   = "answer"
)

var (
	// ErrRequestFailed covers every way an ask can fail: transport errors,
	// non-2xx responses and bodies without a string answer.
	ErrRequestFailed = errors.New("ask request failed")

	// ErrInvalidQuestion is returned by DecodeQuestion for malformed bodies.
	ErrInvalidQuestion = errors.New("invalid question payload")
)

// EncodeQuestion builds the request body {"user_q": question}.
func EncodeQuestion(question string) ([]byte, error) {
	return sjson.SetBytes([]byte(`{}`), QuestionField, question)
}

// DecodeQuestion extracts user_q from a request body.
func DecodeQuestion(body []byte) (string, error) {
	return stringField(body, QuestionField, ErrInvalidQuestion)
}

// EncodeAnswer builds the response body {"answer": answer}.
func EncodeAnswer(answer string) ([]byte, error) {
	return sjson.SetBytes([]byte(`{}`), AnswerField, answer)
}

// DecodeAnswer extracts the answer from a response body. A body that is not
// a JSON object, or whose answer is missing or not a string, is an error.
func DecodeAnswer(body []byte) (string, error) {
	return stringField(body, AnswerField, ErrRequestFailed)
}

func stringField(body []byte, field string, kind error) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: body is not valid JSON", kind)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return "", fmt.Errorf("%w: body is not a JSON object", kind)
	}
	v := doc.Get(field)
	if !v.Exists() {
		return "", fmt.Errorf("%w: missing %q field", kind, field)
	}
	if v.Type != gjson.String {
		return "", fmt.Errorf("%w: %q is %s, want string", kind, field, v.Type)
	}
	return v.String(), nil
}
