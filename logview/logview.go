// Package logview reads the server's JSON log file back and picks out
// failures and search results that yielded no emails.
package logview

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

// NoEmailsMessage is logged once per search result without a matching
// email. Changing it breaks the viewer.
const NoEmailsMessage = "no emails found in search result"

var errorLevels = map[string]bool{
	"ERROR":  true,
	"DPANIC": true,
	"PANIC":  true,
	"FATAL":  true,
}

// Options selects which entries are printed. The zero value prints nothing
// but still counts.
type Options struct {
	Errors   bool
	NoEmails bool
	All      bool
}

var (
	Default      = Options{Errors: true, NoEmails: true}
	ErrorsOnly   = Options{Errors: true}
	NoEmailsOnly = Options{NoEmails: true}
	Everything   = Options{Errors: true, NoEmails: true, All: true}
)

// Entry is one parsed log line.
type Entry struct {
	Time    string
	Level   string
	Message string
	Raw     string
}

// IsError reports whether the entry was logged at error level or above.
func (e Entry) IsError() bool { return errorLevels[e.Level] }

// IsNoEmails reports whether the entry is a no-emails warning.
func (e Entry) IsNoEmails() bool { return strings.Contains(strings.ToLower(e.Message), NoEmailsMessage) }

// Summary counts what Filter saw.
type Summary struct {
	Lines    int
	Errors   int
	NoEmails int
}

// Parse decodes a single JSON log line. ok is false for anything that is
// not a JSON object with a level and message.
func Parse(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || !gjson.Valid(line) {
		return Entry{}, false
	}
	res := gjson.GetMany(line, "ts", "level", "msg")
	if !res[1].Exists() || !res[2].Exists() {
		return Entry{}, false
	}
	return Entry{
		Time:    res[0].String(),
		Level:   strings.ToUpper(res[1].String()),
		Message: res[2].String(),
		Raw:     line,
	}, true
}

// Filter scans r and prints the entries selected by opts to w, followed
// by a summary. Unparseable lines are counted but otherwise skipped.
func Filter(r io.Reader, w io.Writer, opts Options) (Summary, error) {
	var sum Summary
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for sc.Scan() {
		sum.Lines++
		e, ok := Parse(sc.Text())
		if !ok {
			continue
		}
		switch {
		case e.IsError():
			sum.Errors++
			if opts.Errors {
				fmt.Fprintf(w, "ERROR [%s] %s\n", e.Time, e.Message)
				printContext(w, e)
			}
		case e.IsNoEmails():
			sum.NoEmails++
			if opts.NoEmails {
				fmt.Fprintf(w, "NO EMAILS [%s]\n", e.Time)
				for _, key := range []string{"title", "url", "snippet"} {
					if v := gjson.Get(e.Raw, key); v.Exists() {
						fmt.Fprintf(w, "   %s: %s\n", key, v.String())
					}
				}
			}
		case opts.All:
			fmt.Fprintf(w, "%s [%s] %s\n", e.Level, e.Time, e.Message)
		}
	}
	if err := sc.Err(); err != nil {
		return sum, fmt.Errorf("reading log: %w", err)
	}

	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "   Total log lines: %d\n", sum.Lines)
	fmt.Fprintf(w, "   Errors found: %d\n", sum.Errors)
	fmt.Fprintf(w, "   Items without emails: %d\n", sum.NoEmails)
	return sum, nil
}

// printContext dumps the structured fields of an entry, minus the ones
// already on the headline.
func printContext(w io.Writer, e Entry) {
	fields := map[string]string{}
	gjson.Parse(e.Raw).ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "ts", "level", "msg":
		default:
			fields[key.String()] = value.String()
		}
		return true
	})
	if len(fields) == 0 {
		return
	}
	fmt.Fprintln(w, "   fields:")
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		fmt.Fprintf(w, "     %s: %s\n", key, fields[key])
	}
}
