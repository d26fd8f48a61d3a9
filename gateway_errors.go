package evote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// errorBody is the JSON error shape of the remote service
type errorBody struct {
	Success *bool               `json:"success"`
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

// kindFromStatus maps an HTTP status to an error kind
func kindFromStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	}
	return KindServerError
}

// normalizeFailure builds the *Error of a non 2xx response.
// Structured bodies give the message verbatim, anything else is degraded
// to a human readable text and never surfaces raw markup
func normalizeFailure(op string, resp *response) *Error {
	failure := &Error{
		Kind:       kindFromStatus(resp.status),
		Op:         op,
		StatusCode: resp.status,
	}

	trimmed := bytes.TrimSpace(resp.body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var body errorBody
		if err := json.Unmarshal(trimmed, &body); err == nil {
			failure.Fields = body.Errors
			failure.Message = body.Message
			if failure.Message == "" {
				failure.Message = body.Error
			}
			if failure.Message == "" {
				failure.Message = firstFieldError(body.Errors)
			}
			if failure.Message == "" {
				failure.Message = statusMessage(resp.status)
			}
			return failure
		}
	}

	failure.Message = textMessage(trimmed, resp.status)
	return failure
}

// firstFieldError returns the first validation message in field order
func firstFieldError(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, message := range fields[name] {
			if message != "" {
				return message
			}
		}
	}
	return ""
}

// statusMessage returns the status text of an HTTP status
func statusMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("Server error: %d", status)
}

// textMessage extracts a best effort message from a non JSON body.
// HTML pages give their title or first heading, short plain text
// is kept as is, everything else falls back to the status
func textMessage(body []byte, status int) string {
	if len(body) == 0 {
		return statusMessage(status)
	}
	if bytes.IndexByte(body, '<') >= 0 {
		if message := htmlMessage(body); message != "" {
			return message
		}
		return fmt.Sprintf("Server error: %d", status)
	}
	if utf8.Valid(body) && len(body) <= maxErrorTextLength {
		return strings.TrimSpace(string(body))
	}
	return fmt.Sprintf("Server error: %d", status)
}

// htmlMessage returns the text of the <title> element,
// or of the first <h1> when the page has no title
func htmlMessage(body []byte) string {
	var heading string
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return heading

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if tag != "title" && (tag != "h1" || heading != "") {
				continue
			}
			text := collectText(tokenizer, tag)
			if tag == "title" && text != "" {
				return text
			}
			if tag == "h1" {
				heading = text
			}
		}
	}
}

// collectText concatenates the text tokens until the closing tag
func collectText(tokenizer *html.Tokenizer, tag string) string {
	var parts []string
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.TextToken:
			if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
				parts = append(parts, text)
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == tag {
				return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
			}
		}
	}
}
