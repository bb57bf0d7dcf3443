package channel

import (
	"bytes"
	"encoding/xml"
)

// Minimal TwiML builder for voice replies. No provider SDK dependency;
// only the verbs the voice adapter emits.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName       xml.Name  `xml:"Gather"`
	Input         string    `xml:"input,attr,omitempty"`
	Action        string    `xml:"action,attr,omitempty"`
	SpeechTimeout string    `xml:"speechTimeout,attr,omitempty"`
	Language      string    `xml:"language,attr,omitempty"`
	Say           *twimlSay `xml:"Say,omitempty"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

func voiceLanguage(language string) string {
	if language == "en" {
		return "en-US"
	}
	return "es-MX"
}

func say(text, language string) *twimlSay {
	return &twimlSay{Language: voiceLanguage(language), Text: text}
}

// SpeakAndListen says text, then gathers the caller's next speech turn and
// posts the transcript back to action.
func SpeakAndListen(text, language, action string) (string, error) {
	return renderTwiML(twimlGather{
		Input:         "speech",
		Action:        action,
		SpeechTimeout: "auto",
		Language:      voiceLanguage(language),
		Say:           say(text, language),
	})
}

// SpeakAndHangup says text and ends the call.
func SpeakAndHangup(text, language string) (string, error) {
	return renderTwiML(*say(text, language), twimlHangup{})
}

func renderTwiML(verbs ...any) (string, error) {
	r := twimlResponse{Verbs: verbs}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
