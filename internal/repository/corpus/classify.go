package corpus

import (
	"strings"

	domcorpus "github.com/corpusgate/corpusgate/internal/domain/corpus"
	"github.com/corpusgate/corpusgate/internal/domain/search/stype"
)

// priorityKeywords maps a search type to the collection-name substrings that
// suggest affinity. Priority only reorders scheduling; every collection is
// still searched.
var priorityKeywords = map[stype.Type]struct {
	tag      domcorpus.Priority
	keywords []string
}{
	stype.Phone: {
		tag:      domcorpus.PriorityPhone,
		keywords: []string{"phone", "mobile", "contact", "tel", "sms"},
	},
	stype.Name: {
		tag:      domcorpus.PriorityName,
		keywords: []string{"name", "user", "member", "person", "customer"},
	},
	stype.IDCard: {
		tag:      domcorpus.PriorityIDCard,
		keywords: []string{"idcard", "identity", "citizen", "card"},
	},
}

// Classify partitions collections into priority and normal groups for the
// given search type, priority group first. Order within each group follows
// the input enumeration order.
func Classify(corpusID string, collections []string, t stype.Type) []domcorpus.Collection {
	rule, hasRule := priorityKeywords[t]

	var priority, normal []domcorpus.Collection
	for _, name := range collections {
		if hasRule && matchesAny(name, rule.keywords) {
			priority = append(priority, domcorpus.NewCollection(corpusID, name, rule.tag))
			continue
		}
		normal = append(normal, domcorpus.NewCollection(corpusID, name, domcorpus.PriorityNone))
	}
	return append(priority, normal...)
}

func matchesAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
