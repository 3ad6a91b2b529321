// Package help holds the language reference printed by "schtick help".
package help

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/schyntax/pkg/fields"
)

// QUICKREF is printed by "schtick help" without a topic.
const QUICKREF = `schtick v0.1 - Schyntax schedule expressions

A schedule is a list of field expressions. An instant matches when every
field matches; fields left out match anything, except that the fields
finer than the finest one given default to zero.

  h(9) m(30)                 every day at 09:30:00
  dow(mon..fri) h(8..17)     on the hour during the working week
  dom(-1) h(23) m(59)        23:59 on the last day of every month
  {h(9)} {dow(sat) h(11)}    groups: 09:00 every day, and 11:00 on Saturdays

Commands:
  check   validate a schedule
  next    print upcoming matches
  prev    print recent matches
  fmt     print the canonical form
  ir      print the compiled form
  run     run the tasks of a configuration file

Topics (schtick help <topic>):
  syntax  fields  ranges  dates  groups  diagnostics  examples
`

// TopicList is the order topics are listed in.
var TopicList = []string{"syntax", "fields", "ranges", "dates", "groups", "diagnostics", "examples"}

// Topics maps topic names to their text.
var Topics = map[string]string{
	"syntax": `SYNTAX

  expression  := field "(" argument { "," argument } [","] ")"
  argument    := ["!"] ( "*" | value [ ".." value | "..." value ] ) ["%" n]
  group       := "{" expression { [","] expression } "}"

Expressions and groups may be separated by whitespace or commas. A
trailing comma before a closing bracket is allowed. Field names are case
insensitive.

  !   excludes the argument from the field
  *   the whole domain of the field
  %n  only every n-th value, counted from the start of the range
`,

	"fields": `FIELDS

  seconds       s sec second secondOfMinute          0..59
  minutes       m min minute minuteOfHour            0..59
  hours         h hour hourOfDay                     0..23
  daysOfWeek    dow day days dayOfWeek               sun..sat (1..7)
  daysOfMonth   dom dayOfMonth                       1..31, -1..-31
  daysOfYear    doy dayOfYear                        1..366, -1..-366
  months        month monthOfYear                    jan..dec (1..12)
  dates         date                                 m/d or y/m/d

Negative days count back from the end of the month or year: dom(-1) is
the last day of every month, including February 29 in leap years.

Day names: sun mon tue wed thu fri sat (full names work too).
Month names: jan feb mar apr may jun jul aug sep oct nov dec.
`,

	"ranges": `RANGES

  a..b    from a to b inclusive
  a...b   from a up to but not including b
  b..a    wraps around: h(22..2) is 22, 23, 0, 1, 2

An interval steps through a range from its start:

  s(10..50%10)   10, 20, 30, 40, 50
  m(*%15)        0, 15, 30, 45
  m(%15)         same as above
  s(10%20)       10, 30, 50 (the range runs to the end of the field)

A wrapped range keeps its interval across the wrap: h(22..2%2) is 22, 0, 2.
`,

	"dates": `DATES

  dates(12/25)               every December 25th
  dates(2030/1/1)            only January 1st 2030
  dates(12/20..1/5)          wraps across the new year
  dates(2021/3/1..2021/6/1)  a fixed period
  dates(1/1%7)               every 7th day counted from January 1st

Both ends of a range must either carry a year or not. Years must lie
between 1900 and 2200. An interval that starts on February 29 counts from
February 28 in years without a leap day.
`,

	"groups": `GROUPS

Expressions inside braces form a group. A schedule matches an instant
when any group matches it; expressions outside of braces form a group of
their own.

  {dow(mon..fri) h(9)} {dow(sat,sun) h(11)}

next returns the earliest result of all groups and prev the latest.
`,

	"diagnostics": `DIAGNOSTICS

  E_LEX            input that is not part of the language
  E_PARSE          a token in the wrong place
  E_VALIDATE       a value outside its field, or a malformed range
  E_NO_VALID_TIME  the schedule never matches
  E_INTERNAL       a tokenizer fault; please report it

Every diagnostic carries the offset of the offending text. Use --pretty
to see it underlined.

Exit codes: 0 success, 1 usage or I/O error, 2 invalid schedule,
4 no valid time.
`,

	"examples": `EXAMPLES

  schtick next "m(*%5)"                      every five minutes
  schtick next -n 3 "dom(1) h(0)"            the next three month starts
  schtick prev --from 2021-06-01T00:00:00Z "dow(fri) h(17)"
  schtick check --pretty "h(25)"
  schtick fmt "dow(2..6) h(9)"               prints daysOfWeek(mon..fri) hours(9)
  schtick ir --cbor "{s(0)} {s(30)}"
`,
}

// MatchTopic resolves name to a topic by exact name or unique prefix.
func MatchTopic(name string) (string, string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if content, ok := Topics[name]; ok {
		return name, content, nil
	}

	var matches []string
	for _, topic := range TopicList {
		if name != "" && strings.HasPrefix(topic, name) {
			matches = append(matches, topic)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q", name)
	default:
		return "", "", fmt.Errorf("ambiguous help topic %q: %s", name, strings.Join(matches, ", "))
	}
}

// FieldIndex lists every field with the keywords that select it.
func FieldIndex() string {
	var b strings.Builder
	defs := fields.Default().All()
	for _, d := range defs {
		fmt.Fprintf(&b, "%-12s %s\n", d.Name, strings.Join(d.Synonyms, " "))
	}
	fmt.Fprintf(&b, "\nTotal: %d fields\n", len(defs))
	return b.String()
}
