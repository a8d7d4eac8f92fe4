package timeline

import "strings"

// Extract renders committed records as plain text notes under a mediaName
// header, in the order they are given.
func Extract(mediaName string, records []Record) (string, error) {
	if len(records) == 0 {
		return "", ErrNothingToSave
	}
	var b strings.Builder
	b.WriteString(mediaName)
	b.WriteString("\n\n")
	for _, r := range records {
		b.WriteString(r.TimeRange())
		b.WriteString("\n")
		b.WriteString("Topic: " + r.Topic + "\n")
		b.WriteString("Type: " + r.Category.Label() + "\n")
		b.WriteString(r.Body)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}
