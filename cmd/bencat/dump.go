package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/meow-io/go-bencode/bencode"
	"github.com/meow-io/go-bencode/transcode"
)

const maxQuoted = 64

var (
	positionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	containerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	keyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// quote shows a byte string as a Go literal, eliding the middle of long ones.
func quote(b []byte) string {
	if len(b) <= maxQuoted {
		return strconv.Quote(string(b))
	}
	return fmt.Sprintf("%s... (%d bytes)", strconv.Quote(string(b[:maxQuoted])), len(b))
}

func dump(w io.Writer, data []byte, skipDuplicateKeys bool) error {
	n, err := transcode.Walk(data, func(tok transcode.Token) error {
		var text string
		switch tok.Type {
		case bencode.Integer:
			text = valueStyle.Render(strconv.FormatInt(tok.Int, 10))
		case bencode.String:
			text = valueStyle.Render(quote(tok.Bytes))
		case bencode.Key:
			text = keyStyle.Render(quote(tok.Bytes))
		default:
			text = containerStyle.Render(tok.Type.String())
		}
		_, err := fmt.Fprintf(w, "%s %s%s\n", positionStyle.Render(fmt.Sprintf("%6d", tok.Position)), strings.Repeat("  ", tok.Depth), text)
		return err
	}, bencode.WithSkipDuplicateKeys(skipDuplicateKeys))
	if err != nil {
		return err
	}
	if n != len(data) {
		return &transcode.TrailingDataError{Position: n, Length: len(data)}
	}
	return nil
}
