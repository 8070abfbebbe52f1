package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pior/redis/resp"
)

// Bulk strings longer than this are cut in the output
const maxShownBulk = 256

// render writes v the way redis-cli does.
func render(w io.Writer, v resp.Value) {
	var sb strings.Builder
	renderValue(&sb, v, "")
	fmt.Fprintln(w, sb.String())
}

func renderValue(sb *strings.Builder, v resp.Value, indent string) {
	switch v.Kind {
	case resp.KindBulkString:
		if len(v.Bulk) <= maxShownBulk {
			sb.WriteString(strconv.Quote(string(v.Bulk)))
			return
		}
		sb.WriteString(strconv.Quote(string(v.Bulk[:maxShownBulk])))
		fmt.Fprintf(sb, "... (%s)", humanize.Bytes(uint64(len(v.Bulk))))
	case resp.KindSimpleString:
		sb.WriteString(v.Text)
	case resp.KindError:
		sb.WriteString("(error) " + v.Text)
	case resp.KindInteger:
		sb.WriteString("(integer) " + strconv.FormatUint(v.Int, 10))
	case resp.KindArray:
		if len(v.Array) == 0 {
			sb.WriteString("(empty array)")
			return
		}

		width := len(strconv.Itoa(len(v.Array)))
		for i, elem := range v.Array {
			if i > 0 {
				sb.WriteString("\n" + indent)
			}
			label := fmt.Sprintf("%*d) ", width, i+1)
			sb.WriteString(label)
			renderValue(sb, elem, indent+strings.Repeat(" ", len(label)))
		}
	default:
		sb.WriteString("(invalid)")
	}
}

// splitArgs splits a command line into words. Double quotes group words and
// support the escapes of Go string literals, like "\r\n" or "\x00".
func splitArgs(line string) ([]string, error) {
	var args []string

	for {
		line = strings.TrimLeft(line, " \t")
		if line == "" {
			return args, nil
		}

		if line[0] != '"' {
			end := strings.IndexAny(line, " \t")
			if end < 0 {
				end = len(line)
			}
			args = append(args, line[:end])
			line = line[end:]
			continue
		}

		quoted, err := strconv.QuotedPrefix(line)
		if err != nil {
			return nil, fmt.Errorf("unbalanced quotes in %s", line)
		}
		arg, err := strconv.Unquote(quoted)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		line = line[len(quoted):]
	}
}
