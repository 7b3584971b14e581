package parser

import (
	"regexp"
	"strings"
	"time"
)

// ParsedTask is a draft extracted from free text. Priority is 0 when absent.
type ParsedTask struct {
	Title    string     `json:"title"`
	Priority int        `json:"priority,omitempty"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Tags     []string   `json:"tags"`
	Domain   string     `json:"domain,omitempty"`
}

type priorityRule struct {
	re    *regexp.Regexp
	value int
}

type dateRule struct {
	re      *regexp.Regexp
	resolve func(now time.Time) time.Time
}

var (
	tagRegex    = regexp.MustCompile(`#(\w+)`)
	domainRegex = regexp.MustCompile(`@(\w+)`)
	spaceRegex  = regexp.MustCompile(`\s+`)

	// Checked in order; the first tier that matches wins.
	priorityRules = []priorityRule{
		{regexp.MustCompile(`(?i)\b(?:high\s+priority|urgent|important)\b|!high\b`), 5},
		{regexp.MustCompile(`(?i)\bmedium\s+priority\b|!medium\b`), 3},
		{regexp.MustCompile(`(?i)\blow\s+priority\b|!low\b`), 1},
	}

	// Dates match anywhere in a word, so "todays" still counts as today.
	dateRules = []dateRule{
		{regexp.MustCompile(`(?i)tomorrow`), func(now time.Time) time.Time {
			return atHour(now.AddDate(0, 0, 1), 9)
		}},
		{regexp.MustCompile(`(?i)today`), func(now time.Time) time.Time {
			return atHour(now, 18)
		}},
		{regexp.MustCompile(`(?i)next\s+week`), func(now time.Time) time.Time {
			return atHour(nextMonday(now), 9)
		}},
	}
)

// ParseTaskInput parses input relative to the current local time.
func ParseTaskInput(input string) ParsedTask {
	return ParseTaskInputAt(input, time.Now())
}

// ParseTaskInputAt extracts tags, priority, a relative due date and a domain
// from input, in that order. Each rule strips its matches before the next
// one runs. Unmatched text degrades to a title-only draft.
func ParseTaskInputAt(input string, now time.Time) ParsedTask {
	parsed := ParsedTask{Tags: []string{}}
	title := collapse(input)

	// 1. Tags
	for _, m := range tagRegex.FindAllStringSubmatch(title, -1) {
		parsed.Tags = append(parsed.Tags, m[1])
	}
	title = strip(tagRegex, title)

	// 2. Priority
	for _, rule := range priorityRules {
		if rule.re.MatchString(title) {
			parsed.Priority = rule.value
			break
		}
	}
	for _, rule := range priorityRules {
		title = strip(rule.re, title)
	}

	// 3. Relative date
	for _, rule := range dateRules {
		if rule.re.MatchString(title) {
			due := rule.resolve(now)
			parsed.DueDate = &due
			break
		}
	}
	for _, rule := range dateRules {
		title = strip(rule.re, title)
	}

	// 4. Domain: only the first @word is kept.
	if m := domainRegex.FindStringSubmatch(title); m != nil {
		parsed.Domain = m[1]
	}

	// 5. Anything the removals glued back together is scrubbed so that
	// re-parsing the title finds nothing.
	parsed.Title = scrub(title)
	return parsed
}

func scrub(title string) string {
	for {
		before := title
		title = strip(tagRegex, title)
		for _, rule := range priorityRules {
			title = strip(rule.re, title)
		}
		for _, rule := range dateRules {
			title = strip(rule.re, title)
		}
		title = strip(domainRegex, title)
		if title == before {
			return title
		}
	}
}

// strip replaces every match with a space so neighbours never fuse into a
// new word, then normalises whitespace.
func strip(re *regexp.Regexp, s string) string {
	return collapse(re.ReplaceAllString(s, " "))
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

func atHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}

// nextMonday returns the first Monday strictly after t.
func nextMonday(t time.Time) time.Time {
	days := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return t.AddDate(0, 0, days)
}
