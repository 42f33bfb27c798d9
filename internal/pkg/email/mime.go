package email

import (
	"bytes"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"sort"
	"strings"
	"time"
)

// buildMIME renders msg as an RFC 5322 message with a quoted-printable HTML
// body. Custom headers follow the standard ones in sorted order.
func buildMIME(msg *Message, messageID string, date time.Time) ([]byte, error) {
	var buf bytes.Buffer

	writeHeader := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}

	writeHeader("From", msg.From)
	writeHeader("To", msg.To)
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader("Date", date.Format(time.RFC1123Z))
	if messageID != "" {
		writeHeader("Message-ID", messageID)
	}
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", "text/html; charset=UTF-8")
	writeHeader("Content-Transfer-Encoding", "quoted-printable")

	keys := make([]string, 0, len(msg.Headers))
	for k := range msg.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		// header injection guard
		v := strings.NewReplacer("\r", "", "\n", "").Replace(msg.Headers[k])
		writeHeader(k, v)
	}
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(msg.HTMLBody)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// domainOf returns the part after '@', or "localhost".
func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return strings.TrimRight(addr[i+1:], ">")
	}
	return "localhost"
}
