package notify

import (
	"bytes"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"
)

// Message is a composed email ready for a Transport.
type Message struct {
	From    string
	To      []string
	Subject string

	// MediaType is the "main/sub" content type of Body, e.g. "text/html".
	MediaType string

	Body string

	// Date is written as the Date header when set.
	Date time.Time
}

// Bytes renders the message in RFC 5322 form with CRLF line endings. The
// subject is Q-encoded when needed and the body is quoted-printable.
func (m *Message) Bytes() []byte {
	var buf bytes.Buffer

	header := func(name, value string) {
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString("\r\n")
	}

	header("From", m.From)
	header("To", strings.Join(m.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	if !m.Date.IsZero() {
		header("Date", m.Date.Format(time.RFC1123Z))
	}
	header("MIME-Version", "1.0")
	contentType := mime.FormatMediaType(m.MediaType, map[string]string{"charset": "utf-8"})
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	header("Content-Type", contentType)
	header("Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	_, _ = qp.Write([]byte(m.Body))
	_ = qp.Close()

	return buf.Bytes()
}

// envelopeAddress returns the bare address of a header address such as
// "Reports <reports@example.com>". Unparseable input is returned as is.
func envelopeAddress(addr string) string {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return addr
	}
	return parsed.Address
}
