// Package classify assigns a DocumentClassification from URL/title hints or
// from the opening text of a document.
package classify

import (
	"regexp"
	"strings"

	"github.com/AlosedAG/contract-finder/internal/models"
)

// headLength is how much of a document's text counts as its heading area.
const headLength = 1500

type rule struct {
	class    models.DocumentClassification
	patterns []*regexp.Regexp
	excludes []*regexp.Regexp
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// rules are evaluated in priority order; the first match wins.
var rules = []rule{
	{
		class:    models.ClassOrderForm,
		patterns: compile(`order\s*form`, `renewal\s*order`, `purchase\s*order`, `service\s*order\s*form`, `quote\s*form`),
	},
	{
		class:    models.ClassContractAgreement,
		patterns: compile(`agreement`, `contract`, `master\s*service`, `amendment\s*no`),
		excludes: compile(`agenda`, `staff\s*report`, `memo`),
	},
	{
		class:    models.ClassPricingDocument,
		patterns: compile(`pricing`, `fee\s*schedule`, `cost\s*exhibit`, `cost\s*proposal`, `price\s*list`, `price\s*proposal`, `pricing\s*exhibit`),
	},
	{
		class:    models.ClassStaffReportMemo,
		patterns: compile(`staff\s*report`, `council\s*report`, `agenda\s*report`, `memo\b`, `memorandum`, `board\s*agenda`, `council\s*agenda`, `agenda[\s/]*item`),
	},
	{
		class:    models.ClassRFPProposal,
		patterns: compile(`\brfp\b`, `\brfq\b`, `request\s*for\s*proposal`, `request\s*for\s*qualification`, `\bbid\b`, `solicitation`, `proposal`, `response`),
	},
}

var separators = strings.NewReplacer("-", " ", "_", " ", "+", " ", "%20", " ", "/", " / ")

// FromHints classifies a result from its URL and title.
func FromHints(url, title string) models.DocumentClassification {
	return match(separators.Replace(strings.ToLower(url + " " + title)))
}

// FromText classifies a document from the cues in its heading area. When the
// text carries no cue, hint is returned.
func FromText(text string, hint models.DocumentClassification) models.DocumentClassification {
	head := strings.ToLower(text)
	if len(head) > headLength {
		head = head[:headLength]
	}
	if c := match(head); c != models.ClassOtherGovDocument {
		return c
	}
	if hint == "" {
		return models.ClassOtherGovDocument
	}
	return hint
}

func match(s string) models.DocumentClassification {
	for _, r := range rules {
		if anyMatch(r.excludes, s) {
			continue
		}
		if anyMatch(r.patterns, s) {
			return r.class
		}
	}
	return models.ClassOtherGovDocument
}

func anyMatch(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
