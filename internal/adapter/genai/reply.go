package genai

import "github.com/xiaot623/visionassist/internal/domain"

// NoResponseText is shown when the model returned no text.
const NoResponseText = "No response received."

const (
	textErrPrefix  = "Error: "
	imageErrPrefix = "Error analyzing image: "
)

// Reply is the outcome of one generative call. Faults travel in Err and are only
// rendered to text by String.
type Reply struct {
	Text string
	Err  error

	errPrefix string
}

// TextReply builds the reply of a chat or media call.
func TextReply(text string, err error) Reply {
	return Reply{Text: text, Err: err, errPrefix: textErrPrefix}
}

// ImageReply builds the reply of a multimodal image call.
func ImageReply(text string, err error) Reply {
	return Reply{Text: text, Err: err, errPrefix: imageErrPrefix}
}

// Failed reports whether the call faulted.
func (r Reply) Failed() bool {
	return r.Err != nil
}

// Cause returns the fault of the call, or domain.ErrNoResponse when it succeeded
// without any text.
func (r Reply) Cause() error {
	if r.Err != nil {
		return r.Err
	}
	if r.Text == "" {
		return domain.ErrNoResponse
	}
	return nil
}

// String returns the displayable form: the text, NoResponseText or an error line.
func (r Reply) String() string {
	if r.Err != nil {
		prefix := r.errPrefix
		if prefix == "" {
			prefix = textErrPrefix
		}
		return prefix + r.Err.Error()
	}
	if r.Text == "" {
		return NoResponseText
	}
	return r.Text
}
